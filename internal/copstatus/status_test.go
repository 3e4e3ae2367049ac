package copstatus

import (
	"errors"
	"testing"

	"google.golang.org/grpc/codes"
)

func TestErrorIsMatchesKind(t *testing.T) {
	err := New("Open", BadSchema, "common_id mismatch")
	if !errors.Is(err, &Error{Kind: BadSchema}) {
		t.Fatal("expected errors.Is to match on Kind")
	}
	if errors.Is(err, &Error{Kind: Corrupt}) {
		t.Fatal("expected errors.Is to reject a different Kind")
	}
}

func TestWrapUnwrap(t *testing.T) {
	cause := errors.New("short buffer")
	err := Wrap("RecordDecoder.Decode", Corrupt, "truncated key bytes", cause)
	if !errors.Is(err, cause) {
		t.Fatal("expected Unwrap chain to reach cause")
	}
}

func TestKindOf(t *testing.T) {
	if KindOf(nil) != OK {
		t.Fatal("expected OK for nil error")
	}
	if KindOf(errors.New("plain")) != Internal {
		t.Fatal("expected Internal for an unclassified error")
	}
	if KindOf(New("Execute", Cancelled, "cursor closed")) != Cancelled {
		t.Fatal("expected KindOf to extract Cancelled")
	}
}

func TestToGRPCCode(t *testing.T) {
	cases := map[Kind]codes.Code{
		OK:                 codes.OK,
		BadSchema:          codes.InvalidArgument,
		BadArity:           codes.InvalidArgument,
		TypeMismatch:       codes.InvalidArgument,
		BadRequest:         codes.InvalidArgument,
		Corrupt:            codes.DataLoss,
		VersionSkew:        codes.FailedPrecondition,
		ArithmeticOverflow: codes.OutOfRange,
		Cancelled:          codes.Canceled,
		Internal:           codes.Internal,
	}
	for kind, want := range cases {
		if got := ToGRPCCode(kind); got != want {
			t.Errorf("ToGRPCCode(%s) = %v, want %v", kind, got, want)
		}
	}
}
