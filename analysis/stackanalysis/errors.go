// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//      http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package stackanalysis

import "fmt"

// ErrorCategory classifies why an analysis run failed. Every error the
// analyzer surfaces to its caller is fatal to the current analysis; there
// is no partial recovery.
type ErrorCategory int

const (
	// MalformedOperand: an offset/size argument violated the 4-byte
	// alignment or sign constraint, or an ACTION referenced an unknown
	// function id.
	MalformedOperand ErrorCategory = iota

	// StackUnderrun: an opcode required more stack depth than is
	// currently present, outside of the designed parameter/return
	// underrun patterns.
	StackUnderrun

	// TypeMismatch: an operand was not compatible with a concrete
	// required type.
	TypeMismatch

	// Recursion: a subroutine or block was re-entered while still
	// InProgress.
	Recursion

	// MissingContext: a globals-dependent opcode executed without a
	// globals stack.
	MissingContext

	// Protocol: SAVEBP was seen outside globals mode, or more than once.
	Protocol
)

func (c ErrorCategory) String() string {
	switch c {
	case MalformedOperand:
		return "MalformedOperand"
	case StackUnderrun:
		return "StackUnderrun"
	case TypeMismatch:
		return "TypeMismatch"
	case Recursion:
		return "Recursion"
	case MissingContext:
		return "MissingContext"
	case Protocol:
		return "Protocol"
	default:
		return "Unknown"
	}
}

// AnalysisError is the single error type the analyzer raises. It carries
// enough structured context (instruction address, opcode name, and a
// short reason) for a caller to report a precise diagnostic without
// parsing an error string.
type AnalysisError struct {
	Category ErrorCategory
	Address  uint32
	Opcode   string
	Reason   string
}

func (e *AnalysisError) Error() string {
	if e.Opcode == "" {
		return fmt.Sprintf("%s: %s", e.Category, e.Reason)
	}
	return fmt.Sprintf("%s: @%08X: %s: %s", e.Category, e.Address, e.Opcode, e.Reason)
}

func newError(category ErrorCategory, addr uint32, opcode string, format string, args ...any) *AnalysisError {
	return &AnalysisError{
		Category: category,
		Address:  addr,
		Opcode:   opcode,
		Reason:   fmt.Sprintf(format, args...),
	}
}
