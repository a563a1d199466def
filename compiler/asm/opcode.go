package asm

// Opcode distinguishes the supported immediate compare encodings.
// Thumb-1 CMP has no CMN counterpart.
type Opcode int

const (
	OpInvalid Opcode = iota
	OpCmpA32
	OpCmnA32
	OpCmpT16
	OpCmpT32
	OpCmnT32
)

func (op Opcode) String() string {
	switch op {
	case OpCmpA32:
		return "cmp"
	case OpCmnA32:
		return "cmn"
	case OpCmpT16:
		return "cmp.n"
	case OpCmpT32:
		return "cmp.w"
	case OpCmnT32:
		return "cmn.w"
	}

	return "??"
}

// IsCmn reports whether the stored immediate is the negated comparand.
func (op Opcode) IsCmn() bool {
	return op == OpCmnA32 || op == OpCmnT32
}
