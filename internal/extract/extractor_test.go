package extract

import (
	"archive/zip"
	"bytes"
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/unclebandit/ad-scheduler/internal/llm"
	"github.com/unclebandit/ad-scheduler/internal/model"
)

type fakeGenerator struct {
	out     string
	err     error
	prompts []string
	models  []llm.Model
}

func (g *fakeGenerator) Generate(ctx context.Context, m llm.Model, prompt string) (string, error) {
	g.prompts = append(g.prompts, prompt)
	g.models = append(g.models, m)
	return g.out, g.err
}

func TestFormatFromFilename(t *testing.T) {
	cases := map[string]Format{
		"plan.xlsx":      FormatSpreadsheet,
		"PLAN.XLSX":      FormatSpreadsheet,
		"plan.xls":       FormatLegacyWorkbook,
		"plan.pdf":       FormatPDF,
		"plan.docx":      FormatWord,
		"plan.txt":       FormatText,
		"plan.csv":       FormatText,
		"no-extension":   FormatText,
		"archive.tar.gz": FormatText,
	}
	for name, want := range cases {
		assert.Equal(t, want, FormatFromFilename(name), name)
	}
}

func buildDocx(t *testing.T, documentXML string) []byte {
	t.Helper()
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	w, err := zw.Create("word/document.xml")
	require.NoError(t, err)
	_, err = w.Write([]byte(documentXML))
	require.NoError(t, err)
	require.NoError(t, zw.Close())
	return buf.Bytes()
}

const docxBody = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main">
  <w:body>
    <w:p><w:r><w:t>Q1 schedule</w:t></w:r></w:p>
    <w:p><w:r><w:t>Spring Sale</w:t></w:r><w:r><w:tab/><w:t xml:space="preserve">2024-03-01 to 2024-03-31</w:t></w:r></w:p>
    <w:p></w:p>
  </w:body>
</w:document>`

func TestWordText(t *testing.T) {
	text, err := WordText(buildDocx(t, docxBody))
	require.NoError(t, err)
	assert.Equal(t, "Q1 schedule\nSpring Sale\t2024-03-01 to 2024-03-31\n", text)
}

func TestWordTextRejectsNonDocx(t *testing.T) {
	_, err := WordText([]byte("plain bytes"))
	assert.Error(t, err)

	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	_, err = zw.Create("other.xml")
	require.NoError(t, err)
	require.NoError(t, zw.Close())
	_, err = WordText(buf.Bytes())
	assert.Error(t, err)
}

func TestSpreadsheetText(t *testing.T) {
	f := excelize.NewFile()
	sheet := f.GetSheetName(0)
	require.NoError(t, f.SetSheetRow(sheet, "A1", &[]any{"name", "start_date", "end_date"}))
	require.NoError(t, f.SetSheetRow(sheet, "A2", &[]any{"Spring Sale", "2024-03-01", "2024-03-31"}))
	require.NoError(t, f.SetSheetRow(sheet, "A3", &[]any{"Summer, Big", "2024-06-01", "2024-06-30"}))
	buf, err := f.WriteToBuffer()
	require.NoError(t, err)

	text, err := SpreadsheetText(buf.Bytes())
	require.NoError(t, err)
	assert.Equal(t, "name,start_date,end_date\nSpring Sale,2024-03-01,2024-03-31\n\"Summer, Big\",2024-06-01,2024-06-30\n", text)
}

func TestSpreadsheetTextRejectsGarbage(t *testing.T) {
	_, err := SpreadsheetText([]byte("not a workbook"))
	assert.Error(t, err)
}

// buildPDF writes a one-page PDF that shows text in Helvetica, with a correct xref table.
func buildPDF(text string) []byte {
	content := fmt.Sprintf("BT /F1 12 Tf 72 720 Td (%s) Tj ET", text)
	objects := []string{
		"<< /Type /Catalog /Pages 2 0 R >>",
		"<< /Type /Pages /Kids [3 0 R] /Count 1 >>",
		"<< /Type /Page /Parent 2 0 R /MediaBox [0 0 612 792] /Contents 4 0 R /Resources << /Font << /F1 5 0 R >> >> >>",
		fmt.Sprintf("<< /Length %d >>\nstream\n%s\nendstream", len(content), content),
		"<< /Type /Font /Subtype /Type1 /BaseFont /Helvetica /Encoding /WinAnsiEncoding >>",
	}

	var buf bytes.Buffer
	buf.WriteString("%PDF-1.4\n")
	offsets := make([]int, len(objects))
	for i, obj := range objects {
		offsets[i] = buf.Len()
		fmt.Fprintf(&buf, "%d 0 obj\n%s\nendobj\n", i+1, obj)
	}
	xref := buf.Len()
	fmt.Fprintf(&buf, "xref\n0 %d\n0000000000 65535 f \n", len(objects)+1)
	for _, off := range offsets {
		fmt.Fprintf(&buf, "%010d 00000 n \n", off)
	}
	fmt.Fprintf(&buf, "trailer\n<< /Size %d /Root 1 0 R >>\nstartxref\n%d\n%%%%EOF\n", len(objects)+1, xref)
	return buf.Bytes()
}

func TestPDFText(t *testing.T) {
	text, err := PDFText(buildPDF("Spring Sale 2024-03-01"))
	require.NoError(t, err)
	assert.Contains(t, text, "Spring Sale 2024-03-01")
}

func TestExtractPDFDocument(t *testing.T) {
	gen := &fakeGenerator{out: `[{"name":"Spring Sale","start_date":"2024-03-01","end_date":"2024-03-31"}]`}
	ex := NewExtractor(gen, nil)

	got := ex.Extract(context.Background(), "plan.pdf", buildPDF("Spring Sale 2024-03-01"))
	require.Len(t, got, 1)
	require.Len(t, gen.prompts, 1)
	assert.Contains(t, gen.prompts[0], "Spring Sale 2024-03-01")
}

func TestPDFTextRejectsGarbage(t *testing.T) {
	_, err := PDFText([]byte("not a pdf"))
	assert.Error(t, err)
}

func TestPlainText(t *testing.T) {
	text, err := PlainText([]byte("Spring Sale 2024-03-01"))
	require.NoError(t, err)
	assert.Equal(t, "Spring Sale 2024-03-01", text)

	_, err = PlainText([]byte{0xff, 0xfe, 0x00})
	assert.Error(t, err)
}

func TestDecodeCandidates(t *testing.T) {
	cases := []struct {
		name string
		raw  string
		want []model.CandidateRecord
	}{
		{
			name: "plain list",
			raw:  `[{"name":"A","start_date":"2024-01-01","end_date":"2024-01-05"}]`,
			want: []model.CandidateRecord{{Name: "A", StartDateText: "2024-01-01", EndDateText: "2024-01-05"}},
		},
		{
			name: "fenced with prose",
			raw:  "Here you go:\njson\n[{\"name\":\"A\",\"start_date\":\"2024-01-01\",\"end_date\":\"2024-01-05\"},{\"name\":\"B\",\"start_date\":\"2024-02-01\",\"end_date\":\"2024-02-05\"}]\nEnjoy!",
			want: []model.CandidateRecord{
				{Name: "A", StartDateText: "2024-01-01", EndDateText: "2024-01-05"},
				{Name: "B", StartDateText: "2024-02-01", EndDateText: "2024-02-05"},
			},
		},
		{
			name: "single object",
			raw:  `{"name":"A","start_date":"2024-01-01","end_date":"2024-01-05"}`,
			want: []model.CandidateRecord{{Name: "A", StartDateText: "2024-01-01", EndDateText: "2024-01-05"}},
		},
		{
			name: "wrapped list",
			raw:  `{"campaigns":[{"name":"A","start_date":"2024-01-01","end_date":"2024-01-05"}]}`,
			want: []model.CandidateRecord{{Name: "A", StartDateText: "2024-01-01", EndDateText: "2024-01-05"}},
		},
		{
			name: "non string values",
			raw:  `[{"name":42,"start_date":20240101,"end_date":null}]`,
			want: []model.CandidateRecord{{Name: "42", StartDateText: "20240101", EndDateText: ""}},
		},
		{
			name: "empty list",
			raw:  `[]`,
			want: []model.CandidateRecord{},
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := DecodeCandidates(tc.raw)
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestDecodeCandidatesRejects(t *testing.T) {
	for _, raw := range []string{"", "I could not find any campaigns.", `["just","strings"]`, `"a string"`, `{"a":[],"b":[]}`} {
		_, err := DecodeCandidates(raw)
		assert.Errorf(t, err, "expected %q to be rejected", raw)
	}
}

func TestExtractUsesDefaultModelAndPrompt(t *testing.T) {
	gen := &fakeGenerator{out: `[{"name":"Spring Sale","start_date":"2024-03-01","end_date":"2024-03-31"}]`}
	ex := NewExtractor(gen, nil)

	got := ex.Extract(context.Background(), "plan.txt", []byte("Spring Sale runs 2024-03-01 through 2024-03-31"))
	require.Len(t, got, 1)
	assert.Equal(t, "Spring Sale", got[0].Name)

	require.Len(t, gen.prompts, 1)
	assert.Equal(t, []llm.Model{llm.DefaultModel}, gen.models)
	assert.Contains(t, gen.prompts[0], "Extract all ad campaign schedule items")
	assert.Contains(t, gen.prompts[0], "Return only valid JSON.\n\nSpring Sale runs 2024-03-01 through 2024-03-31")
}

func TestExtractWordDocument(t *testing.T) {
	gen := &fakeGenerator{out: `[]`}
	ex := NewExtractor(gen, nil)

	got := ex.Extract(context.Background(), "plan.docx", buildDocx(t, docxBody))
	assert.Empty(t, got)
	require.Len(t, gen.prompts, 1)
	assert.Contains(t, gen.prompts[0], "Spring Sale\t2024-03-01 to 2024-03-31")
}

func TestExtractFailuresYieldNoCandidates(t *testing.T) {
	cases := []struct {
		name      string
		filename  string
		payload   []byte
		gen       *fakeGenerator
		stage     string
		wantCalls int
	}{
		{"unreadable document", "plan.docx", []byte("broken"), &fakeGenerator{}, "read", 0},
		{"blank document", "plan.txt", []byte("   \n"), &fakeGenerator{}, "read", 0},
		{"legacy workbook", "plan.xls", []byte{0xd0, 0xcf, 0x11, 0xe0}, &fakeGenerator{}, "unsupported", 0},
		{"generation error", "plan.txt", []byte("some text"), &fakeGenerator{err: errors.New("boom")}, "generate", 1},
		{"unparseable output", "plan.txt", []byte("some text"), &fakeGenerator{out: "no campaigns here"}, "decode", 1},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			core, logs := observer.New(zap.InfoLevel)
			ex := NewExtractor(tc.gen, zap.New(core))

			got := ex.Extract(context.Background(), tc.filename, tc.payload)
			assert.NotNil(t, got)
			assert.Empty(t, got)
			assert.Len(t, tc.gen.prompts, tc.wantCalls)

			entries := logs.FilterMessage("schedule extraction failed").All()
			require.Len(t, entries, 1)
			assert.Equal(t, tc.stage, entries[0].ContextMap()["stage"])
		})
	}
}
