// Package xmerge merges many pre-sorted text files, such as rotated log
// files, into one globally sorted stream without holding the input in
// memory.
//
// The files are merged pairwise along a balanced binary tree. Each merge
// step streams two sorted readers into a new intermediate file in a temp
// directory and releases both inputs, so at most O(log N) files are open
// and at most one line per open file is buffered. The final intermediate
// file is rewound and handed to a Handler; once the handler returns it is
// closed and deleted.
//
// Basic usage:
//
//	err := xmerge.Merge(ctx, []string{"a.log", "b.log", "c.log.gz"},
//	    xmerge.HandlerFunc(func(ctx context.Context, result io.Reader) error {
//	        _, err := io.Copy(os.Stdout, result)
//	        return err
//	    }),
//	    xmerge.WithLineFilter(func(line string) bool { return strings.Contains(line, "ERROR") }),
//	    xmerge.WithProgressHandler(func(f float64) { log.Printf("%.0f%%", f*100) }),
//	)
//
// Guarantees:
//   - every line kept by the filter appears exactly once in the output
//   - equal lines keep the order of their files, earlier files first
//   - source files are never written to or deleted
//   - no intermediate file survives Merge, on success or failure
package xmerge
