package main

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/luxfi/gg20tss/internal/round"
	"github.com/luxfi/gg20tss/internal/typed"
	"github.com/luxfi/gg20tss/pkg/party"
	"github.com/luxfi/gg20tss/protocols/sign"
)

var (
	signDir     string
	signParties []int
	signMessage string
)

var signCmd = &cobra.Command{
	Use:   "sign",
	Short: "Run a threshold signature over a set of ceygen shares",
	Long: `sign reads back the share files a "ceygen" run wrote to -d and drives
the seven-round GG20 signing protocol in-process, one simulated party per
-p share id, producing a DER-encoded low-S ECDSA signature over the
SHA-256 digest of -m.`,
	RunE: runSign,
}

func init() {
	signCmd.Flags().StringVarP(&signDir, "dir", "d", ".", "directory holding share files")
	signCmd.Flags().IntSliceVarP(&signParties, "party", "p", nil, "share id of a signer (repeat for each signer)")
	signCmd.Flags().StringVarP(&signMessage, "message", "m", "", "message to sign")
	_ = signCmd.MarkFlagRequired("party")
}

func runSign(cmd *cobra.Command, args []string) error {
	if len(signParties) == 0 {
		return fmt.Errorf("sign: at least one -p share id required")
	}

	counts, err := readPartyShareCounts(signDir)
	if err != nil {
		return fmt.Errorf("sign: %w", err)
	}

	digest := sha256.Sum256([]byte(signMessage))

	sessionNonce := make([]byte, 32)
	if _, err := rand.Read(sessionNonce); err != nil {
		return fmt.Errorf("sign: %w", err)
	}

	signers := typed.NewSubset[party.KeygenPartyDomain](counts.PartyCount())
	for _, id := range signParties {
		if err := signers.Add(typed.MustFromUsize[party.KeygenPartyDomain](id)); err != nil {
			return fmt.Errorf("sign: %w", err)
		}
	}

	rounds := make(map[int]*round.Round[party.SignShareDomain, []byte], len(signParties))
	for _, id := range signParties {
		share, err := readShareFile(signDir, id)
		if err != nil {
			return fmt.Errorf("sign: %w", err)
		}
		r, err := sign.Start(sign.Config{
			Share:        share,
			Signers:      signers,
			MsgDigest:    digest,
			SessionNonce: sessionNonce,
		})
		if err != nil {
			return fmt.Errorf("sign: %w", err)
		}
		rounds[r.Info().MyShareID.AsUsize()] = r
	}

	results, err := runProtocol(rounds)
	if err != nil {
		return fmt.Errorf("sign: %w", err)
	}

	for _, res := range results {
		if res.Faulters != nil {
			var faults []string
			_ = res.Faulters.Iter(func(idx typed.Index[party.SignShareDomain], f round.Fault) error {
				faults = append(faults, fmt.Sprintf("share %d: %s", idx.AsUsize(), f.Error()))
				return nil
			})
			return fmt.Errorf("sign: protocol faulted:\n%s", strings.Join(faults, "\n"))
		}
		fmt.Fprintln(cmd.OutOrStdout(), hex.EncodeToString(*res.Output))
		return nil
	}
	return fmt.Errorf("sign: no results produced")
}
