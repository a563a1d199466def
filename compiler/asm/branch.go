package asm

// FirstTerminator returns the index of the first instruction of the
// terminator run at the end of the block, or -1 if there is none.
func (f *Func) FirstTerminator(b int) int {
	code := f.Blocks[b].Code

	i := len(code)

	for i > 0 && IsTerminator(code[i-1]) {
		i--
	}

	if i == len(code) {
		return -1
	}

	return i
}

// AnalyzeBranch decodes the terminator run of block b.
// For a conditional branch it returns the true successor, the false
// successor (explicit b or fallthrough) and the branch condition.
// ok is false for plain branches, returns and malformed blocks.
func (f *Func) AnalyzeBranch(b int) (tbb, fbb int, cond Cond, ok bool) {
	term := f.FirstTerminator(b)
	if term < 0 {
		return 0, 0, AL, false
	}

	code := f.Blocks[b].Code
	run := code[term:]

	bc, ok := run[0].(BCond)
	if !ok {
		return 0, 0, AL, false
	}

	switch len(run) {
	case 1:
		if b+1 >= len(f.Blocks) {
			return 0, 0, AL, false
		}

		return bc.Block, b + 1, bc.Cond, true
	case 2:
		br, ok := run[1].(B)
		if !ok {
			return 0, 0, AL, false
		}

		return bc.Block, br.Block, bc.Cond, true
	}

	return 0, 0, AL, false
}

// Successors lists successor blocks of b, true successor first.
func (f *Func) Successors(b int) []int {
	code := f.Blocks[b].Code
	term := f.FirstTerminator(b)

	if term < 0 {
		if b+1 < len(f.Blocks) {
			return []int{b + 1}
		}

		return nil
	}

	var succ []int

	fall := true

	for _, x := range code[term:] {
		switch x := x.(type) {
		case BCond:
			succ = append(succ, x.Block)
		case B:
			succ = append(succ, x.Block)
			fall = false
		case Ret:
			fall = false
		}
	}

	if fall && b+1 < len(f.Blocks) {
		succ = append(succ, b+1)
	}

	return succ
}
