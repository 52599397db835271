// Package image parses the GTU machine's program image format: a text
// file holding an optional Data Section (address/value pairs used to
// seed memory) and an optional Instruction Section (index/mnemonic
// lines used to populate an instruction table).
//
// The format is deliberately simple: it carries resolved addresses and
// integers only. There is no macro expansion, no labels, and no
// assemble-time expression evaluation, since a GTU image is the output
// of some other toolchain, not source text a human edits by hand.
package image

import (
	"bufio"
	"fmt"
	"io"
	"log"
	"regexp"
	"strconv"
	"strings"

	"github.com/ezrec/gtusim/machine"
)

const (
	markerBeginData  = "Begin Data Section"
	markerEndData    = "End Data Section"
	markerBeginInstr = "Begin Instruction Section"
	markerEndInstr   = "End Instruction Section"
)

// MemInit is a single address/value pair from a Data Section.
type MemInit struct {
	Addr  int
	Value machine.Word
}

// Warning describes a non-fatal irregularity found while parsing, such
// as a non-sequential instruction index.
type Warning struct {
	LineNo int
	Text   string
}

func (w Warning) String() string {
	return fmt.Sprintf("line %d: %s", w.LineNo, w.Text)
}

// Image is the parsed result: the data-section pairs to apply to
// memory, and the instruction table to run.
type Image struct {
	Verbose bool // if set, logs section markers and lines outside sections; lines inside a section are not logged

	Data     []MemInit
	Table    *machine.Table
	Warnings []Warning
}

var instrLineRe = regexp.MustCompile(`^(-?\d+)\s+(\S+)(?:\s+(.*))?$`)
var dataLineRe = regexp.MustCompile(`^(-?\d+)[,\s]+(-?\d+)$`)

// Parse reads a program image from r.
func Parse(r io.Reader) (img *Image, err error) {
	return ParseVerbose(r, false)
}

// ParseVerbose is Parse with control over per-line logging.
func ParseVerbose(r io.Reader, verbose bool) (img *Image, err error) {
	img = &Image{Verbose: verbose}

	scanner := bufio.NewScanner(r)

	var lineno int
	var line string

	defer func() {
		if err != nil {
			err = &ErrParseLine{LineNo: lineno, Line: line, Err: err}
		}
	}()

	var instrs []machine.Instruction
	sawData, sawInstr := false, false

	for scanner.Scan() {
		lineno++
		raw := scanner.Text()

		if idx := strings.IndexByte(raw, '#'); idx >= 0 {
			raw = raw[:idx]
		}
		line = strings.TrimSpace(raw)

		if img.Verbose {
			log.Printf("gtusim: image: %d: %v", lineno, line)
		}

		switch {
		case line == "":
			continue

		case line == markerBeginData:
			if sawData {
				return nil, ErrDuplicateSection(markerBeginData)
			}
			sawData = true
			img.Data, err = parseDataSection(scanner, &lineno, &line)
			if err != nil {
				return nil, err
			}

		case line == markerBeginInstr:
			if sawInstr {
				return nil, ErrDuplicateSection(markerBeginInstr)
			}
			sawInstr = true
			instrs, img.Warnings, err = parseInstructionSection(scanner, &lineno, &line)
			if err != nil {
				return nil, err
			}

		case line == markerEndData:
			return nil, ErrUnexpectedMarker(markerEndData)

		case line == markerEndInstr:
			return nil, ErrUnexpectedMarker(markerEndInstr)

		default:
			// Text outside any section is ignored, matching the
			// teacher's tolerance for a free-form preamble before
			// the first recognized marker.
			continue
		}
	}

	if err := scanner.Err(); err != nil {
		return nil, err
	}

	img.Table = machine.NewTable(instrs)

	return img, nil
}

// parseDataSection consumes lines until End Data Section, returning the
// accumulated address/value pairs.
func parseDataSection(scanner *bufio.Scanner, lineno *int, line *string) ([]MemInit, error) {
	var out []MemInit

	for scanner.Scan() {
		*lineno++
		raw := scanner.Text()
		if idx := strings.IndexByte(raw, '#'); idx >= 0 {
			raw = raw[:idx]
		}
		*line = strings.TrimSpace(raw)

		if *line == "" {
			continue
		}
		if *line == markerEndData {
			return out, nil
		}

		m := dataLineRe.FindStringSubmatch(*line)
		if m == nil {
			return nil, ErrParseFields(*line)
		}
		addr, err := strconv.ParseInt(m[1], 10, 64)
		if err != nil {
			return nil, ErrParseNumber(m[1])
		}
		val, err := strconv.ParseInt(m[2], 10, 64)
		if err != nil {
			return nil, ErrParseNumber(m[2])
		}
		out = append(out, MemInit{Addr: int(addr), Value: machine.Word(val)})
	}

	return nil, ErrUnterminatedSection(markerBeginData)
}

// parseInstructionSection consumes lines until End Instruction Section,
// building a dense instruction slice with gaps left as holes.
func parseInstructionSection(scanner *bufio.Scanner, lineno *int, line *string) ([]machine.Instruction, []Warning, error) {
	var slots []machine.Instruction
	var warnings []Warning
	expected := 0

	for scanner.Scan() {
		*lineno++
		raw := scanner.Text()
		if idx := strings.IndexByte(raw, '#'); idx >= 0 {
			raw = raw[:idx]
		}
		*line = strings.TrimSpace(raw)

		if *line == "" {
			continue
		}
		if *line == markerEndInstr {
			return slots, warnings, nil
		}

		m := instrLineRe.FindStringSubmatch(*line)
		if m == nil {
			return nil, nil, ErrParseFields(*line)
		}

		index, err := strconv.Atoi(m[1])
		if err != nil {
			return nil, nil, ErrParseNumber(m[1])
		}
		if index < 0 {
			return nil, nil, ErrNegativeIndex(index)
		}

		if index != expected {
			warnings = append(warnings, Warning{
				LineNo: *lineno,
				Text:   fmt.Sprintf("non-sequential instruction index %d (expected %d)", index, expected),
			})
		}

		ins, err := parseInstruction(m[2], m[3])
		if err != nil {
			return nil, nil, err
		}
		ins.Source = *line

		if index >= len(slots) {
			grown := make([]machine.Instruction, index+1)
			copy(grown, slots)
			slots = grown
		}
		slots[index] = ins

		expected = index + 1
	}

	return nil, nil, ErrUnterminatedSection(markerBeginInstr)
}

var operandSepRe = regexp.MustCompile(`[,\s]+`)

// tokenizeOperands splits operand text on commas and/or whitespace,
// since the format tolerates either between the SYSCALL subtype and
// each operand. The mnemonic itself must be followed by whitespace.
func tokenizeOperands(text string) []string {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}
	return operandSepRe.Split(text, -1)
}

// parseInstruction decodes a single mnemonic plus its operand text into
// an Instruction.
func parseInstruction(mnemonic string, operandText string) (machine.Instruction, error) {
	operands := tokenizeOperands(operandText)

	if strings.EqualFold(mnemonic, "SYSCALL") {
		if len(operands) == 0 {
			return machine.Instruction{}, ErrSyscallSubtypeMissing(mnemonic)
		}
		op, wantOperands, ok := machine.LookupSyscall(operands[0])
		if !ok {
			return machine.Instruction{}, ErrUnknownSyscallSubtype(operands[0])
		}
		operands = operands[1:]
		return buildInstruction(op, wantOperands, operands)
	}

	op, wantOperands, ok := machine.LookupMnemonic(mnemonic)
	if !ok {
		return machine.Instruction{}, ErrUnknownMnemonic(mnemonic)
	}

	return buildInstruction(op, wantOperands, operands)
}

func buildInstruction(op machine.Opcode, wantOperands int, operands []string) (machine.Instruction, error) {
	if len(operands) != wantOperands {
		return machine.Instruction{}, ErrOperandCount{Want: wantOperands, Got: len(operands)}
	}

	ins := machine.Instruction{Op: op, Operands: wantOperands}

	if wantOperands >= 1 {
		v, err := strconv.ParseInt(operands[0], 10, 64)
		if err != nil {
			return machine.Instruction{}, ErrParseNumber(operands[0])
		}
		ins.Arg1 = machine.Word(v)
	}
	if wantOperands >= 2 {
		v, err := strconv.ParseInt(operands[1], 10, 64)
		if err != nil {
			return machine.Instruction{}, ErrParseNumber(operands[1])
		}
		ins.Arg2 = machine.Word(v)
	}

	return ins, nil
}
