package email

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDiagnoseSMTP(t *testing.T) {
	cases := []struct {
		err  error
		code string
		temp bool
	}{
		{nil, "unknown", false},
		{context.DeadlineExceeded, "timeout", true},
		{errors.New("dial tcp 127.0.0.1:25: connect: connection refused"), "dial", true},
		{errors.New("x509: certificate signed by unknown authority"), "tls", false},
		{errors.New("535 5.7.8 Username and Password not accepted"), "auth", false},
		{errors.New("421 4.7.0 Try again later"), "rate_limited", true},
		{errors.New("550 5.1.1 user unknown"), "invalid_recipient", false},
		{errors.New("550 5.7.1 message rejected due to DMARC policy"), "rejected", false},
		{fmt.Errorf("smtp send: %w", errors.New("boom")), "unknown", false},
	}
	for _, tc := range cases {
		d := DiagnoseSMTP(tc.err)
		require.Equal(t, tc.code, d.Code, "%v", tc.err)
		require.Equal(t, tc.temp, d.Temporary, "%v", tc.err)
	}
}
