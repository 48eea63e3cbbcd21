package values

import "fmt"

// MalformedReferenceError indicates a reference string's scheme segment was
// present but its remainder failed to parse (§4.1, §7 Malformed).
type MalformedReferenceError struct {
	Raw    string
	Reason string
}

func (e *MalformedReferenceError) Error() string {
	return fmt.Sprintf("malformed module reference %q: %s", e.Raw, e.Reason)
}

// UnsupportedTargetError indicates a reference used a scheme that the
// calling command contract forbids (§4.1, §7 UnsupportedTarget).
type UnsupportedTargetError struct {
	Raw    string
	Scheme string
}

func (e *UnsupportedTargetError) Error() string {
	return fmt.Sprintf("unsupported target %q: scheme %q is not a valid module reference scheme", e.Raw, e.Scheme)
}
