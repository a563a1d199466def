package asm

type (
	Reg int
	Imm int32

	Instr any

	// Cmp is a flags-producing compare of a register with an immediate.
	// CMN forms store the negated comparand: cmn r0, #3 compares r0 with -3.
	Cmp struct {
		Op   Opcode
		Rn   Reg
		Imm  Imm
		Sym  string // symbolic immediate, set instead of Imm
		Pred Cond
	}

	B struct {
		Block int
	}

	BCond struct {
		Cond  Cond
		Block int
	}

	Ret struct{}

	// Other is any instruction this package does not model.
	// Only its interaction with the flags register matters.
	Other struct {
		Name string

		ReadsFlags  bool
		WritesFlags bool
	}

	Block struct {
		Name string
		Code []Instr
	}

	Func struct {
		Name   string
		Blocks []Block
	}
)

// Entry block is Blocks[0].
const Entry = 0

func IsTerminator(x Instr) bool {
	switch x.(type) {
	case B, BCond, Ret:
		return true
	}

	return false
}

func ReadsFlags(x Instr) bool {
	switch x := x.(type) {
	case Cmp:
		return x.Pred != AL
	case BCond:
		return true
	case Other:
		return x.ReadsFlags
	}

	return false
}

func WritesFlags(x Instr) bool {
	switch x := x.(type) {
	case Cmp:
		return true
	case Other:
		return x.WritesFlags
	}

	return false
}

func (b *Block) Insert(i int, x Instr) {
	b.Code = append(b.Code, nil)
	copy(b.Code[i+1:], b.Code[i:])
	b.Code[i] = x
}

func (b *Block) Erase(i int) {
	b.Code = append(b.Code[:i], b.Code[i+1:]...)
}
