package vm

import (
	"fmt"
	"strconv"
	"strings"
)

// Disassemble returns a human-readable listing of the bytecode. Function
// bodies are indented under their DECLARE_FN and jumps show their target.
func Disassemble(code Bytecode, name string) (string, error) {
	if err := Validate(code); err != nil {
		return "", err
	}
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("== %s ==\n", name))

	offset := 0
	if code.HasMarker() {
		sb.WriteString(fmt.Sprintf("%04d %q\n", 0, code[0]))
		offset = 1
	}
	var bodyEnds []int
	for offset < len(code) {
		for len(bodyEnds) > 0 && offset >= bodyEnds[len(bodyEnds)-1] {
			bodyEnds = bodyEnds[:len(bodyEnds)-1]
		}
		op, _ := asOpcode(code[offset])
		offset = disassembleInstruction(&sb, code, offset, len(bodyEnds))
		if op == OP_DECLARE_FN {
			bodyLen, _ := asInt(code[offset-1])
			bodyEnds = append(bodyEnds, offset+int(bodyLen))
		}
	}
	return sb.String(), nil
}

// disassembleInstruction writes one instruction and returns the offset of
// the next one.
func disassembleInstruction(sb *strings.Builder, code Bytecode, offset, depth int) int {
	op, _ := asOpcode(code[offset])
	sb.WriteString(fmt.Sprintf("%04d ", offset))
	sb.WriteString(strings.Repeat("  ", depth))
	sb.WriteString(op.String())

	next := offset + 1
	operands := op.Operands()
	for _, kind := range operands {
		sb.WriteByte(' ')
		sb.WriteString(formatOperand(kind, code[next]))
		next++
	}
	if op == OP_JUMP || op == OP_JUMP_IF_FALSE {
		n, _ := asInt(code[offset+1])
		sb.WriteString(fmt.Sprintf(" -> %04d", next+int(n)))
	}
	sb.WriteByte('\n')
	return next
}

func formatOperand(kind OperandKind, tok any) string {
	switch kind {
	case OperandString:
		return strconv.Quote(tok.(string))
	case OperandFloat:
		f, _ := asFloat(tok)
		return floatLiteral(f)
	}
	n, _ := asInt(tok)
	return strconv.FormatInt(n, 10)
}
