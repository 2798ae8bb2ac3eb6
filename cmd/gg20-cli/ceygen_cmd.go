package main

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/luxfi/gg20tss/pkg/curve"
	"github.com/luxfi/gg20tss/pkg/party"
	"github.com/luxfi/gg20tss/protocols/ceygen"
)

var (
	ceygenParties      int
	ceygenThreshold    int
	ceygenAliceKeyHex  string
	ceygenOutDir       string
	ceygenUnsafePrimes bool
)

var ceygenCmd = &cobra.Command{
	Use:   "ceygen",
	Short: "Derive a threshold keyshare set from a single secret",
	Long: `ceygen builds the same GroupPublicInfo/ShareSecretInfo shapes the
distributed keygen protocol produces, but skips its network rounds: one
dealer Shamir-splits a group private key (supplied via -k, or sampled
fresh) into n shares of threshold k, and writes each share plus the
party_share_counts file a later "sign" run reads back.`,
	RunE: runCeygen,
}

func init() {
	ceygenCmd.Flags().IntVarP(&ceygenParties, "parties", "p", 0, "number of parties/shares (one share per party)")
	ceygenCmd.Flags().IntVarP(&ceygenThreshold, "threshold", "t", 0, "signing threshold k")
	ceygenCmd.Flags().StringVarP(&ceygenAliceKeyHex, "key", "k", "", "hex-encoded group private key (random if omitted)")
	ceygenCmd.Flags().StringVarP(&ceygenOutDir, "out", "o", ".", "output directory for share files")
	ceygenCmd.Flags().BoolVar(&ceygenUnsafePrimes, "unsafe-primes", false, "skip safe-prime generation (fast, test only)")
	_ = ceygenCmd.MarkFlagRequired("parties")
	_ = ceygenCmd.MarkFlagRequired("threshold")
}

func runCeygen(cmd *cobra.Command, args []string) error {
	if ceygenParties <= 0 {
		return fmt.Errorf("ceygen: -p must be positive")
	}
	counts, err := party.NewPartyShareCounts(onesOf(ceygenParties))
	if err != nil {
		return fmt.Errorf("ceygen: %w", err)
	}

	var aliceKey *curve.Scalar
	if ceygenAliceKeyHex != "" {
		raw, err := hex.DecodeString(ceygenAliceKeyHex)
		if err != nil {
			return fmt.Errorf("ceygen: bad -k hex: %w", err)
		}
		aliceKey, err = curve.ScalarFromBytesCanonical(raw)
		if err != nil {
			return fmt.Errorf("ceygen: -k out of range: %w", err)
		}
	}

	secretRecoveryKey := make([]byte, 32)
	if _, err := rand.Read(secretRecoveryKey); err != nil {
		return fmt.Errorf("ceygen: %w", err)
	}
	sessionNonce := make([]byte, 32)
	if _, err := rand.Read(sessionNonce); err != nil {
		return fmt.Errorf("ceygen: %w", err)
	}

	shares, err := ceygen.Generate(ceygen.Config{
		Counts:            counts,
		Threshold:         ceygenThreshold,
		AliceKey:          aliceKey,
		SessionNonce:      sessionNonce,
		SecretRecoveryKey: secretRecoveryKey,
		UnsafePrimes:      ceygenUnsafePrimes,
	})
	if err != nil {
		return fmt.Errorf("ceygen: %w", err)
	}

	if err := os.MkdirAll(ceygenOutDir, 0o755); err != nil {
		return fmt.Errorf("ceygen: %w", err)
	}
	for _, share := range shares {
		if err := writeShareFile(ceygenOutDir, share, secretRecoveryKey, sessionNonce, ceygenUnsafePrimes); err != nil {
			return fmt.Errorf("ceygen: %w", err)
		}
	}
	if err := writePartyShareCounts(ceygenOutDir, counts); err != nil {
		return fmt.Errorf("ceygen: %w", err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "wrote %d shares (threshold %d) to %s\n", len(shares), ceygenThreshold, ceygenOutDir)
	return nil
}

func onesOf(n int) []int {
	out := make([]int, n)
	for i := range out {
		out[i] = 1
	}
	return out
}
