// Package slow5 reads and writes nanopore raw signal files in the SLOW5
// text format (.slow5) and its binary, block-compressed form (.blow5).
//
// A file has a header holding attributes for each read group and the
// schema of its auxiliary fields, followed by records. Each Record carries
// a read id, a read group, the digitisation, offset, range and sampling
// rate of the acquisition, the raw signal as int16 samples and a value for
// some or all of the auxiliary fields.
//
// # Reading
//
//	r, err := slow5.Open("reads.blow5")
//	if err != nil {
//		return err
//	}
//	defer r.Close()
//
//	it := r.Records()
//	for it.Next() {
//		rec, err := it.Record()
//		if err != nil {
//			continue // only this record is affected
//		}
//		fmt.Println(rec.ReadID(), rec.Len())
//	}
//	if err := it.Err(); err != nil {
//		return err
//	}
//
// Records are copied out of the engine's buffers as they are decoded. They
// stay valid after further reads and after the Reader is closed.
//
// # Writing
//
//	w, err := slow5.Create("out.blow5",
//		slow5.WithRecordCompression(slow5.RecordZstd),
//		slow5.WithSignalCompression(slow5.SignalZigzagDelta),
//		slow5.WithField(slow5.EnumField("end_reason", "unknown", "signal_positive")),
//	)
//	...
//	rec, err := w.NewRecordBuilder().
//		ReadID("r1").ReadGroup(0).
//		Digitisation(8192).Offset(23).Range(1467.6).SamplingRate(4000).
//		RawSignal(samples).
//		Build()
//
// The header can be changed until the first Append. After that the field
// registry is committed and every configuration call fails with
// ErrRegistryCommitted.
//
// # Errors
//
// Every error returned by this package matches one of the exported
// sentinels with errors.Is. KindOf sorts them into configuration,
// validation and resource errors.
//
// # Concurrency
//
// Readers and Writers are owned by one goroutine at a time. A call that
// overlaps another on the same handle fails with ErrConcurrentUse. Options,
// Records and committed Registries hold no handle state and can be passed
// between goroutines freely; use one Reader per goroutine to decode in
// parallel, as Summarize does.
package slow5
