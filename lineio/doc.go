// Package lineio implements line-oriented readers and writers over text
// files, the storage format used for merge inputs and intermediate results.
//
// A Reader buffers exactly one line, the current line, and exposes it with
// peek/consume semantics. An optional Filter is applied while advancing, so
// consumers never see rejected lines. Files ending in .gz or .zst are
// decompressed transparently.
//
// Basic usage:
//
//	r, err := lineio.Open("app.log", lineio.Options{
//	    Filter: func(line string) bool { return !strings.Contains(line, "DEBUG") },
//	})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer r.Close()
//
//	for line := range r.All() {
//	    fmt.Println(line)
//	}
//	if err := r.Err(); err != nil {
//	    log.Fatal(err)
//	}
//
// A Writer is the counterpart: it writes '\n' terminated lines through a
// buffer and an optional compressor.
//
//	f, _ := os.Create("out.txt.zst")
//	w, _ := lineio.NewWriter(f, lineio.Zstd)
//	_ = w.WriteLine("hello")
//	_ = w.Close()
//
// Readers opened with Options.Owned delete their file on Close. Files
// supplied by a caller must always be opened without it.
package lineio
