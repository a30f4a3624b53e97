// Package format defines SQLite file format constants and the codecs for the
// smallest units of the on-disk format.
//
// SQLite is in the public domain: https://sqlite.org/copyright.html
//
// # Database File Header
//
// Every SQLite database file begins with a 100-byte header. Header.Parse
// validates the magic string ("SQLite format 3\x00") and the page size (a
// power of two from 512 to 32768, or the raw value 1 meaning 65536) and
// decodes the remaining fields as stored.
//
// # Varints
//
// SQLite integers in cells and record headers use a big-endian
// variable-length encoding of 1 to 9 bytes. The first eight bytes contribute
// their low 7 bits each, with the high bit set when another byte follows; a
// ninth byte contributes all 8 bits:
//
//	v, n, err := format.ReadVarint(buf)
//
// # Records
//
// A record is a header followed by column data. The header starts with its
// own size as a varint, followed by one serial type per column:
//
//	hdr, err := format.ParseRecordHeader(buf, start)
//	off, err := hdr.ColumnOffset(2)
//	col := hdr.Columns[2]
//	v, err := format.DecodeInt(col, buf[off:off+int(col.DataSize())])
//
// Column widths are only known from the serial types, so column i's offset is
// the data start plus the sizes of columns 0..i-1.
//
// # Text Encoding
//
// Text is stored in the encoding named by the header: UTF-8 (1), UTF-16LE (2)
// or UTF-16BE (3). DecodeText converts to a Go string and rejects invalid
// UTF-8, odd-length UTF-16 and unpaired surrogates.
//
// # References
//
//   - SQLite File Format: https://www.sqlite.org/fileformat.html
package format
