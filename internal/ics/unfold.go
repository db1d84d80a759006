package ics

import (
	"bufio"
	"io"
)

// Unfolder reassembles the logical lines of an ICS payload. The format
// folds long property lines by continuing them on the next physical line
// with a leading space or tab; unfolding strips the marker character and
// joins the remainder onto the previous line. A logical line may span any
// number of folds.
//
// Usage mirrors bufio.Scanner:
//
//	u := ics.NewUnfolder(r)
//	for u.Scan() {
//		line := u.Text()
//	}
type Unfolder struct {
	sc *bufio.Scanner

	line string

	// next holds the first physical line of the following logical line,
	// read ahead while collecting folds for the current one.
	next    string
	hasNext bool
	done    bool
}

// NewUnfolder returns an Unfolder reading physical lines from r.
// Both CRLF and bare LF line endings are accepted.
func NewUnfolder(r io.Reader) *Unfolder {
	return &Unfolder{sc: bufio.NewScanner(r)}
}

// Scan advances to the next logical line. It returns false when the input
// is exhausted.
func (u *Unfolder) Scan() bool {
	if u.done && !u.hasNext {
		return false
	}

	var cur string
	if u.hasNext {
		cur = u.next
		u.hasNext = false
	} else {
		if !u.sc.Scan() {
			u.done = true
			return false
		}
		cur = u.sc.Text()
	}

	// Collect continuation lines until the next non-continuation line
	// (or EOF) is seen.
	for u.sc.Scan() {
		phys := u.sc.Text()
		if len(phys) > 0 && (phys[0] == ' ' || phys[0] == '\t') {
			cur += phys[1:]
			continue
		}
		u.next = phys
		u.hasNext = true
		break
	}
	if !u.hasNext {
		u.done = true
	}

	u.line = cur
	return true
}

// Text returns the logical line produced by the last call to Scan.
func (u *Unfolder) Text() string {
	return u.line
}
