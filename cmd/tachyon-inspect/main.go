// tachyon-inspect decodes a wire-format transaction packet and prints the
// admission view of it: content hash, compute budget limits, derived cost,
// fee, and priority.
package main

import (
	"encoding/base64"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"

	"github.com/mr-tron/base58"
	"github.com/rs/zerolog"
	"github.com/urfave/cli/v2"

	"github.com/x1-labs/tachyon/pkg/admission"
	"github.com/x1-labs/tachyon/pkg/budget"
	"github.com/x1-labs/tachyon/pkg/features"
	"github.com/x1-labs/tachyon/pkg/fees"
)

func main() {
	app := &cli.App{
		Name:  "tachyon-inspect",
		Usage: "decode a transaction packet and print its admission summary",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "encoding",
				Aliases: []string{"e"},
				Value:   "base64",
				Usage:   "packet encoding: base64, base58, or hex",
			},
			&cli.StringFlag{
				Name:  "file",
				Usage: "read the raw packet from a file instead of the argument",
			},
			&cli.BoolFlag{
				Name:  "vote",
				Usage: "treat the packet as a simple vote transaction",
			},
			&cli.Uint64Flag{
				Name:  "lamports-per-signature",
				Value: 5000,
				Usage: "base fee rate used for the fee calculation",
			},
			&cli.BoolFlag{
				Name:  "verbose",
				Usage: "enable fee calculation debug logging",
			},
		},
		Action: inspect,
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func inspect(c *cli.Context) error {
	data, err := packetBytes(c)
	if err != nil {
		return err
	}

	packet := admission.Packet{
		Data: data,
		Meta: admission.PacketMeta{IsSimpleVote: c.Bool("vote")},
	}

	p, err := admission.NewImmutablePacket(packet)
	if err != nil {
		return fmt.Errorf("packet rejected: %w", err)
	}

	fs := features.AllEnabled()
	limits, err := budget.ProcessInstructions(p.Transaction().ProgramInstructions(), fs)
	if err != nil {
		return err
	}

	log := zerolog.Nop()
	if c.Bool("verbose") {
		log = zerolog.New(os.Stderr).With().Timestamp().Logger()
	}
	calc := fees.NewCalculator(log)

	prioritizationFee := fees.PrioritizationFee(p.ComputeUnitPrice(), p.ComputeUnitLimit())
	details := calc.CalculateFeeDetails(
		p.Transaction(), false, c.Uint64("lamports-per-signature"), prioritizationFee, fs)

	summary := map[string]any{
		"message_hash":           p.MessageHash().String(),
		"signature":              p.Transaction().ID().String(),
		"fee_payer":              p.Transaction().FeePayer().String(),
		"is_simple_vote":         p.IsSimpleVote(),
		"num_signatures":         len(p.Transaction().Signatures()),
		"num_instructions":       len(p.Transaction().Message().Instructions()),
		"compute_unit_price":     p.ComputeUnitPrice(),
		"compute_unit_limit":     p.ComputeUnitLimit(),
		"heap_bytes":             limits.HeapBytes,
		"loaded_data_size_bytes": limits.LoadedAccountsDataSizeBytes,
		"derived_cost":           fees.DeriveTransactionCost(p.Transaction(), fs),
		"base_fee":               details.BaseFee(),
		"prioritization_fee":     details.PrioritizationFee(),
		"total_fee":              details.Total(),
	}

	out, err := json.MarshalIndent(summary, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(out))
	return nil
}

func packetBytes(c *cli.Context) ([]byte, error) {
	if path := c.String("file"); path != "" {
		return os.ReadFile(path)
	}
	if c.NArg() < 1 {
		return nil, fmt.Errorf("missing packet argument (or --file)")
	}
	raw := c.Args().First()

	switch c.String("encoding") {
	case "base64":
		return base64.StdEncoding.DecodeString(raw)
	case "base58":
		return base58.Decode(raw)
	case "hex":
		return hex.DecodeString(raw)
	default:
		return nil, fmt.Errorf("unknown encoding %q", c.String("encoding"))
	}
}
