package asm

import "tlog.app/go/tlog/tlwire"

// Cond is an ARM condition code. Values follow the ARM encoding order.
type Cond int

const (
	EQ Cond = iota
	NE
	HS
	LO
	MI
	PL
	VS
	VC
	HI
	LS
	GE
	LT
	GT
	LE
	AL
)

var condNames = []string{"eq", "ne", "hs", "lo", "mi", "pl", "vs", "vc", "hi", "ls", "ge", "lt", "gt", "le", "al"}

func (c Cond) String() string {
	if c < 0 || int(c) >= len(condNames) {
		return "??"
	}

	return condNames[c]
}

func CondBySuffix(s string) (Cond, bool) {
	switch s {
	case "cs":
		return HS, true
	case "cc":
		return LO, true
	}

	for c, name := range condNames {
		if s == name {
			return Cond(c), true
		}
	}

	return AL, false
}

func (c Cond) TlogAppend(b []byte) []byte {
	var e tlwire.Encoder

	return e.AppendString(b, c.String())
}
