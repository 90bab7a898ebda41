// Package passport defines the passport record and the pure functions that
// produce and encode it: merging resolved data with user overrides,
// formatting dates, encoding the machine-readable zone and naming output
// files.
//
// Nothing in this package performs I/O. [Build] is safe to call on every
// keystroke of an interactive editor.
package passport
