package domain

import (
	"testing"
)

// FuzzParseName tests that parsing never panics on arbitrary input and always
// returns either an allowlisted name or an error.
func FuzzParseName(f *testing.F) {
	f.Add("")
	f.Add("wallet")
	f.Add("runtime")
	f.Add("WALLET")
	f.Add("wallet ")
	f.Add("wallet\x00")

	f.Fuzz(func(t *testing.T, input string) {
		name, err := ParseName(input)
		if err != nil {
			if name != "" {
				t.Errorf("ParseName(%q) returned both a name and an error", input)
			}
			return
		}
		if !validDomains[name] {
			t.Errorf("ParseName(%q) accepted a name outside the allowlist", input)
		}
	})
}

// FuzzParseOperation mirrors FuzzParseName for operation kinds.
func FuzzParseOperation(f *testing.F) {
	f.Add("")
	f.Add("read")
	f.Add("execute")
	f.Add("READ")

	f.Fuzz(func(t *testing.T, input string) {
		op, err := ParseOperation(input)
		if err != nil {
			if op != "" {
				t.Errorf("ParseOperation(%q) returned both an operation and an error", input)
			}
			return
		}
		if !validOperations[op] {
			t.Errorf("ParseOperation(%q) accepted an operation outside the allowlist", input)
		}
	})
}
