package hookengine

// StripANSI removes ANSI escape sequences (CSI / OSC) from b so hook and
// test-runner parsers never classify terminal color codes as diagnostic
// text (spec §4.2 "ANSI escape codes (stripped)"; shared with pkg/testexec,
// which parses the same kind of colorized tool output).
func StripANSI(b []byte) []byte {
	out := make([]byte, 0, len(b))
	for i := 0; i < len(b); i++ {
		if b[i] != 0x1b {
			out = append(out, b[i])
			continue
		}
		if i+1 >= len(b) {
			break
		}
		switch b[i+1] {
		case '[':
			j := i + 2
			for j < len(b) && !isCSITerminator(b[j]) {
				j++
			}
			i = j
		case ']':
			j := i + 2
			for j < len(b) && b[j] != 0x07 {
				if b[j] == 0x1b && j+1 < len(b) && b[j+1] == '\\' {
					j++
					break
				}
				j++
			}
			i = j
		default:
			i++
		}
	}
	return out
}

func isCSITerminator(b byte) bool {
	return b >= 0x40 && b <= 0x7e
}
