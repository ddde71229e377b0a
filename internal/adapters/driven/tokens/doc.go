// Package tokens provides DocAdapters that turn local files into positioned
// word tokens for the page scanner.
//
// Supported formats:
//
//   - PDF: glyphs from the content stream are grouped into words per text row
//   - JSON: token files produced by an external OCR or layout step
//   - Plain text: form feeds split pages, words get grid boxes
//   - DOCX: paragraphs become lines, explicit page breaks split pages
//   - EML: headers and the text body form a single page
//
// Every adapter reports a sha256 content hash so that already extracted
// documents can be recognised regardless of their path.
package tokens
