package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/require"
)

func admissionErr(t *testing.T, err error) *AdmissionError {
	t.Helper()
	var aerr *AdmissionError
	require.True(t, errors.As(err, &aerr), "expected *AdmissionError, got %v", err)
	return aerr
}

func TestCheckContentLength(t *testing.T) {
	const limit = 1_000_000
	lengthMsg := "Invalid Content-Length header value. The Content-Length must be an integer less than or equal to 1000000 bytes"

	cases := []struct {
		header  string
		status  int
		kind    AdmissionKind
		message string
	}{
		{"", http.StatusLengthRequired, MissingLength, "Content-Length header is required."},
		{"abc", http.StatusBadRequest, InvalidLength, lengthMsg},
		{"-1", http.StatusBadRequest, InvalidLength, lengthMsg},
		{"2000000", http.StatusRequestEntityTooLarge, PayloadTooLarge, lengthMsg},
	}
	for _, tc := range cases {
		t.Run(tc.kind.String(), func(t *testing.T) {
			_, err := CheckContentLength(tc.header, limit)
			aerr := admissionErr(t, err)
			require.Equal(t, tc.status, aerr.Status)
			require.Equal(t, tc.kind, aerr.Kind)
			require.Equal(t, tc.message, aerr.Message)
		})
	}

	n, err := CheckContentLength(" 1000000 ", limit)
	require.NoError(t, err)
	require.EqualValues(t, limit, n)
}

func TestParseEnvelope(t *testing.T) {
	env, err := ParseEnvelope([]byte(` {"query":"{a}"} `))
	require.NoError(t, err)
	require.False(t, env.Batch)
	require.Len(t, env.Operations, 1)

	env, err = ParseEnvelope([]byte(`[{"query":"{a}"},{"query":"{b}"}]`))
	require.NoError(t, err)
	require.True(t, env.Batch)
	require.Len(t, env.Operations, 2)

	env, err = ParseEnvelope([]byte(`[]`))
	require.NoError(t, err)
	require.True(t, env.Batch)
	require.Empty(t, env.Operations)

	for _, bad := range []string{``, `   `, `{`, `[{]`, `"query"`, `42`, `null`} {
		_, err := ParseEnvelope([]byte(bad))
		require.Equal(t, MalformedPayload, admissionErr(t, err).Kind, "body %q", bad)
	}
}

func TestSplitOperations(t *testing.T) {
	ops := make([]json.RawMessage, 11)
	for i := range ops {
		ops[i] = json.RawMessage(`{}`)
	}

	_, err := SplitOperations(Envelope{Operations: ops, Batch: true}, 10)
	aerr := admissionErr(t, err)
	require.Equal(t, http.StatusTooManyRequests, aerr.Status)
	require.Equal(t, "Invalid batch request size. The batch request size must be an integer less than or equal to 10", aerr.Message)

	got, err := SplitOperations(Envelope{Operations: ops[:10], Batch: true}, 10)
	require.NoError(t, err)
	require.Len(t, got, 10)

	got, err = SplitOperations(Envelope{Operations: ops[:1]}, 0)
	require.NoError(t, err, "a single operation is never a batch")
	require.Len(t, got, 1)
}

func TestSplitAssembleRoundTrip(t *testing.T) {
	for n := 0; n <= 12; n++ {
		t.Run(fmt.Sprint(n), func(t *testing.T) {
			payloads := make([]map[string]int, n)
			for i := range payloads {
				payloads[i] = map[string]int{"i": i}
			}
			body, err := json.Marshal(payloads)
			require.NoError(t, err)

			env, err := ParseEnvelope(body)
			require.NoError(t, err)
			ops, err := SplitOperations(env, n)
			require.NoError(t, err)

			var got []map[string]int
			require.NoError(t, json.Unmarshal(AssembleResponse(ops, env.Batch), &got))
			require.Len(t, got, n)
			for i := range got {
				require.Equal(t, i, got[i]["i"])
			}
		})
	}
}

func TestAssembleResponse(t *testing.T) {
	r0 := json.RawMessage(`{"data":{"a":1}}`)
	r1 := json.RawMessage(`{"data":{"b":2}}`)

	require.JSONEq(t, `{"data":{"a":1}}`, string(AssembleResponse([]json.RawMessage{r0}, false)))
	require.JSONEq(t, `[{"data":{"a":1}},{"data":{"b":2}}]`, string(AssembleResponse([]json.RawMessage{r0, r1}, true)))
	require.Equal(t, `[]`, string(AssembleResponse(nil, true)))
}

func TestDecodeOperations(t *testing.T) {
	reqs, err := DecodeOperations([]json.RawMessage{
		json.RawMessage(`{"query":"query Q($n: Int) { a }","operationName":"Q","variables":{"n":1}}`),
	})
	require.NoError(t, err)
	require.Equal(t, "Q", reqs[0].OperationName)
	require.Equal(t, json.Number("1"), reqs[0].Variables["n"])

	_, err = DecodeOperations([]json.RawMessage{json.RawMessage(`{"query":"{a}"}`), json.RawMessage(`{"query":5}`)})
	require.Equal(t, MalformedPayload, admissionErr(t, err).Kind)
}
