// Package bench times the protocol phases, kept apart from the protocol
// code itself.
package bench

import (
	"crypto/rand"
	"fmt"
	"io"
	"time"

	"github.com/fentec-project/bn256"
	"github.com/pkg/errors"

	kuibe "github.com/AUKUS561/KUIBE/KUIBE"
	"github.com/AUKUS561/KUIBE/primitives"
)

// Result is one timed phase.
type Result struct {
	Name       string
	Iterations int
	Total      time.Duration
	PerOp      time.Duration
}

// Run times Setup, KeyGen, KeyUpdate, Encrypt and Decrypt, n iterations
// each, over one scheme instance. Decryption runs against the updated key,
// so a failed update surfaces here as an error.
func Run(n int) ([]Result, error) {
	if n <= 0 {
		return nil, errors.New("bench: iterations must be positive")
	}
	scheme := kuibe.NewKUIBE()
	id := primitives.IdentityFromString("bench@example.org")
	eta := []byte("bench-context")

	results := make([]Result, 0, 5)

	var pp *kuibe.PublicParams
	var msk *kuibe.MasterSecret
	var err error
	start := time.Now()
	for i := 0; i < n; i++ {
		pp, msk, err = scheme.Setup()
		if err != nil {
			return nil, err
		}
	}
	results = append(results, phase("Setup", n, time.Since(start)))

	var sk *kuibe.SecretKey
	start = time.Now()
	for i := 0; i < n; i++ {
		sk, err = scheme.KeyGen(pp, msk, id)
		if err != nil {
			return nil, err
		}
	}
	results = append(results, phase("KeyGen", n, time.Since(start)))

	skNew := sk
	start = time.Now()
	for i := 0; i < n; i++ {
		skNew, err = scheme.KeyUpdate(pp, skNew, id)
		if err != nil {
			return nil, err
		}
	}
	results = append(results, phase("KeyUpdate", n, time.Since(start)))

	_, msg, err := bn256.RandomGT(rand.Reader)
	if err != nil {
		return nil, errors.Wrap(err, "bench: sampling message")
	}
	var ct *kuibe.Ciphertext
	start = time.Now()
	for i := 0; i < n; i++ {
		ct, err = scheme.Encrypt(pp, id, msg, eta)
		if err != nil {
			return nil, err
		}
	}
	results = append(results, phase("Encrypt", n, time.Since(start)))

	start = time.Now()
	for i := 0; i < n; i++ {
		if _, err = scheme.Decrypt(pp, skNew, ct, eta); err != nil {
			return nil, err
		}
	}
	results = append(results, phase("Decrypt", n, time.Since(start)))

	return results, nil
}

func phase(name string, n int, total time.Duration) Result {
	return Result{
		Name:       name,
		Iterations: n,
		Total:      total,
		PerOp:      total / time.Duration(n),
	}
}

// Fprint writes the results as an aligned table.
func Fprint(w io.Writer, results []Result) {
	for _, r := range results {
		fmt.Fprintf(w, "%-10s %6d iterations  total %12s  per op %12s\n",
			r.Name, r.Iterations, r.Total, r.PerOp)
	}
}
