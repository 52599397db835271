// Package machine implements the CPU interpreter for the GTU machine, a
// register-poor, memory-mapped instruction-set architecture.
//
// The machine has no CPU registers beyond two internal flags (halted and
// user_mode); the program counter, stack pointer, and the trap protocol
// cells all live in the low, fixed addresses of a flat word-addressed
// memory. The interpreter's job is the fetch-execute-commit cycle, the
// user/kernel memory protection wrapper, and the syscall/fault trap
// handoff to a cooperative supervisor image.
package machine
