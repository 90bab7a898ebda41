// Package io provides JSON import and export for passport records.
//
// # Overview
//
// A saved lookup lets a passport be re-rendered later, with different
// overrides or render settings, without contacting the 6529 API or an
// Ethereum node. The file keeps both what was resolved from the network and
// the record that was built from it:
//
//	{
//	  "version": 1,
//	  "handle": "alice",
//	  "resolved": {
//	    "handle": "alice",
//	    "wallet": "0x1234567890abcdef1234567890abcdef12345678",
//	    "reputation": "Line 3 Artist"
//	  },
//	  "record": {
//	    "first_name": "-",
//	    "surname": "alice",
//	    "nationality": "6529",
//	    ...
//	  }
//	}
//
// # Import
//
// Use [ImportRecord] to read a file, or [ReadRecord] for any io.Reader. The
// version is checked and the nationality is reset to the fixed value.
// Files without a "resolved" section are accepted; the record is then the
// only source of values.
//
// # Export
//
// Use [ExportRecord] to write a file, or [WriteRecord] for any io.Writer.
// Output is indented for hand editing.
package io
