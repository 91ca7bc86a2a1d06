// Package pdftest provides fixtures for tests that need real PDF bytes or
// stand-in external tools.
package pdftest

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// Minimal returns a well-formed PDF with the given number of blank US Letter pages.
func Minimal(pages int) []byte {
	if pages < 1 {
		panic("pdftest: a PDF needs at least one page")
	}
	var buf bytes.Buffer
	var offsets []int
	writeObj := func(body string) {
		offsets = append(offsets, buf.Len())
		fmt.Fprintf(&buf, "%d 0 obj\n%s\nendobj\n", len(offsets), body)
	}

	buf.WriteString("%PDF-1.4\n")
	kids := make([]string, pages)
	for i := range kids {
		kids[i] = fmt.Sprintf("%d 0 R", i+3)
	}
	writeObj("<< /Type /Catalog /Pages 2 0 R >>")
	writeObj(fmt.Sprintf("<< /Type /Pages /Kids [%s] /Count %d >>", strings.Join(kids, " "), pages))
	for range pages {
		writeObj("<< /Type /Page /Parent 2 0 R /MediaBox [0 0 612 792] /Resources << >> >>")
	}

	xref := buf.Len()
	fmt.Fprintf(&buf, "xref\n0 %d\n", len(offsets)+1)
	buf.WriteString("0000000000 65535 f \n")
	for _, off := range offsets {
		fmt.Fprintf(&buf, "%010d 00000 n \n", off)
	}
	fmt.Fprintf(&buf, "trailer\n<< /Size %d /Root 1 0 R >>\nstartxref\n%d\n%%%%EOF\n", len(offsets)+1, xref)
	return buf.Bytes()
}

// WithStartxref returns a copy of pdf whose startxref points at offset.
func WithStartxref(pdf []byte, offset int) []byte {
	i := bytes.LastIndex(pdf, []byte("startxref\n"))
	return fmt.Appendf(bytes.Clone(pdf[:i]), "startxref\n%d\n%%%%EOF\n", offset)
}

// WithoutXRef returns a copy of pdf with no xref table and no startxref.
func WithoutXRef(pdf []byte) []byte {
	table := bytes.Index(pdf, []byte("xref\n0 "))
	trailer := bytes.Index(pdf, []byte("trailer\n"))
	startxref := bytes.LastIndex(pdf, []byte("startxref\n"))
	out := bytes.Clone(pdf[:table])
	out = append(out, pdf[trailer:startxref]...)
	return append(out, "%%EOF\n"...)
}

// Blank overwrites every occurrence of entry with spaces so object offsets stay valid.
func Blank(pdf []byte, entry string) []byte {
	return bytes.ReplaceAll(pdf, []byte(entry), bytes.Repeat([]byte(" "), len(entry)))
}

// WriteScript writes an executable shell script into dir and returns its path.
func WriteScript(t testing.TB, dir, name, body string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte("#!/bin/sh\n"+body), 0o755); err != nil {
		t.Fatalf("write script %s: %v", name, err)
	}
	return path
}

// FakeSScraper writes a stand-in for the sscraper binary that emits xml for
// whatever PDF it is given. It follows the real tool's "-b <pdf> <outdir>" calling convention.
func FakeSScraper(t testing.TB, dir, xml string) string {
	t.Helper()
	body := fmt.Sprintf(`name=$(basename "$2" .pdf)
cat > "$3/$name.xml" <<'EOF'
%s
EOF
`, xml)
	return WriteScript(t, dir, "sscraper", body)
}

// FakePdftoppm writes a stand-in for pdftoppm that emits the given number of
// pages as "<prefix>-N.png", each containing "page N".
func FakePdftoppm(t testing.TB, dir string, pages int) string {
	t.Helper()
	body := fmt.Sprintf(`prefix="$5"
i=1
while [ $i -le %d ]; do
  printf 'page %%d' $i > "$prefix-$i.png"
  i=$((i+1))
done
`, pages)
	return WriteScript(t, dir, "pdftoppm", body)
}

// BlankPageXML is sscraper output for a single page with no symbols.
const BlankPageXML = `<Document>
  <runtime>12</runtime>
  <pagemetrics>
    <page><no>0</no><pagewidth>612</pagewidth><pageheight>792</pageheight><numtokens>0</numtokens><numrows>0</numrows><numchars>0</numchars></page>
  </pagemetrics>
  <Page id="0"></Page>
</Document>`

// TwoPageXML is sscraper output for two pages: "Hello world" on page 0 and
// "Bye" on page 1.
const TwoPageXML = `<Document>
  <runtime>40</runtime>
  <pagemetrics>
    <page><no>0</no><pagewidth>100</pagewidth><pageheight>200</pageheight></page>
    <page><no>1</no><pagewidth>100</pagewidth><pageheight>200</pageheight></page>
  </pagemetrics>
  <Page id="0">
    <Line id="0">
      <Word id="0">
        <Char id="0" BBOX="10 20 5 10">H</Char>
        <Char id="1" BBOX="15 20 5 10">e</Char>
        <Char id="2" BBOX="20 20 5 10">l</Char>
        <Char id="3" BBOX="25 20 5 10">l</Char>
        <Char id="4" BBOX="30 20 5 10">o</Char>
      </Word>
      <Word id="1">
        <Char id="5" BBOX="40 20 5 10">w</Char>
        <Char id="6" BBOX="45 20 5 10">o</Char>
        <Char id="7" BBOX="50 20 5 10">r</Char>
        <Char id="8" BBOX="55 20 5 10">l</Char>
        <Char id="9" BBOX="60 20 5 10">d</Char>
      </Word>
    </Line>
  </Page>
  <Page id="1">
    <Line id="1">
      <Word id="2">
        <Char id="10" BBOX="10 40 5 10">B</Char>
        <Char id="11" BBOX="15 40 5 10">y</Char>
        <Char id="12" BBOX="20 40 5 10">e</Char>
      </Word>
    </Line>
  </Page>
</Document>`
