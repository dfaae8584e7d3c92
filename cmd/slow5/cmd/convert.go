package cmd

import (
	"errors"
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/ssargent/slow5/internal/logging"
	"github.com/ssargent/slow5/pkg/codec"
	"github.com/ssargent/slow5/pkg/config"
	"github.com/ssargent/slow5/pkg/slow5"
)

// convertCmd represents the convert command
var convertCmd = &cobra.Command{
	Use:   "convert <in> <out>",
	Short: "Convert between SLOW5 and BLOW5",
	Long: `Copy every read of one file into another. The output format follows from
its extension, so this converts SLOW5 to BLOW5, BLOW5 to SLOW5 or recompresses
a BLOW5 file. Reads that cannot be decoded are skipped and counted.

Examples:
  slow5 convert reads.slow5 reads.blow5
  slow5 convert reads.blow5 reads.zlib.blow5 --record-compression zlib --signal-compression none`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		writeOpts, err := writeOptions(cmd, configFrom(cmd), args[1])
		if err != nil {
			return err
		}
		res, err := convertFile(args[0], args[1], readOptions(cmd), writeOpts)
		if err != nil {
			return err
		}
		cmd.Printf("Converted %d reads to %s\n", res.Converted, args[1])
		if res.Skipped > 0 {
			cmd.Printf("Skipped %d reads that could not be decoded\n", res.Skipped)
		}
		return nil
	},
}

type convertResult struct {
	Converted int
	Skipped   int
}

// writeOptions picks compressions for a new file from flags, then config.
// SLOW5 output takes none.
func writeOptions(cmd *cobra.Command, cfg *config.Config, out string) ([]slow5.Option, error) {
	if filepath.Ext(out) != ".blow5" {
		return nil, nil
	}
	rc, err := cfg.RecordCompression()
	if err != nil {
		return nil, err
	}
	sc, err := cfg.SignalCompression()
	if err != nil {
		return nil, err
	}
	if f := cmd.Flags().Lookup("record-compression"); f != nil && f.Changed {
		if rc, err = codec.ParseRecordCompression(f.Value.String()); err != nil {
			return nil, err
		}
	}
	if f := cmd.Flags().Lookup("signal-compression"); f != nil && f.Changed {
		if sc, err = codec.ParseSignalCompression(f.Value.String()); err != nil {
			return nil, err
		}
	}
	return []slow5.Option{slow5.WithRecordCompression(rc), slow5.WithSignalCompression(sc)}, nil
}

// convertFile copies the header and every decodable read of in into out
func convertFile(in, out string, readOpts, writeOpts []slow5.Option) (convertResult, error) {
	var res convertResult
	logger := logging.Logger("convert")

	r, err := slow5.Open(in, readOpts...)
	if err != nil {
		return res, err
	}
	defer r.Close()

	opts, err := headerOptions(r)
	if err != nil {
		return res, err
	}
	w, err := slow5.Create(out, append(opts, writeOpts...)...)
	if err != nil {
		return res, err
	}

	it := r.Records()
	for it.Next() {
		rec, err := it.Record()
		if err != nil {
			res.Skipped++
			logger.Warn().Err(err).Str("file", in).Msg("skipping record")
			continue
		}
		cp, err := copyRecord(w.NewRecordBuilder(), rec)
		if err == nil {
			err = w.Append(cp)
		}
		if err != nil {
			_ = w.Abort()
			return res, fmt.Errorf("read %q: %w", rec.ReadID(), err)
		}
		res.Converted++
	}
	if err := it.Err(); err != nil {
		_ = w.Abort()
		return res, err
	}
	return res, w.Close()
}

// headerOptions reproduces the read groups, attributes and fields of r
func headerOptions(r *slow5.Reader) ([]slow5.Option, error) {
	h := r.Header()
	opts := []slow5.Option{slow5.WithReadGroups(h.NumReadGroups())}
	for _, key := range h.AttributeKeys() {
		for g := uint32(0); g < h.NumReadGroups(); g++ {
			v, err := h.Attribute(key, g)
			if errors.Is(err, slow5.ErrAttributeNotFound) {
				continue
			}
			if err != nil {
				return nil, err
			}
			opts = append(opts, slow5.WithAttribute(key, v, g))
		}
	}
	for _, d := range r.Fields() {
		opts = append(opts, slow5.WithField(d))
	}
	return opts, nil
}

// copyRecord rebuilds rec against the registry behind b
func copyRecord(b *slow5.RecordBuilder, rec *slow5.Record) (*slow5.Record, error) {
	b.ReadID(rec.ReadID()).
		ReadGroup(rec.ReadGroup()).
		Digitisation(rec.Digitisation()).
		Offset(rec.Offset()).
		Range(rec.Range()).
		SamplingRate(rec.SamplingRate()).
		RawSignal(rec.RawSignal())
	for _, name := range rec.AuxNames() {
		v, err := rec.Aux(name)
		if errors.Is(err, slow5.ErrAuxTypeUnsupported) {
			continue
		}
		if err != nil {
			return nil, err
		}
		if err := b.SetAux(name, v); err != nil {
			return nil, err
		}
	}
	return b.Build()
}

func init() {
	rootCmd.AddCommand(convertCmd)
	convertCmd.Flags().String("record-compression", "", "Record compression for BLOW5 output: none, zlib, zstd, snappy")
	convertCmd.Flags().String("signal-compression", "", "Signal compression for BLOW5 output: none, zigzag-delta")
}
