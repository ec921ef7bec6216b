package formatter

import (
	"bytes"

	"github.com/futig/rag-console/internal/entity"
	"github.com/unidoc/unioffice/document"
)

const (
	docxContentType   = "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
	docxFileExtension = ".docx"
)

type DOCXFormatter struct{}

func NewDOCXFormatter() *DOCXFormatter {
	return &DOCXFormatter{}
}

func (mf *DOCXFormatter) Format(t *entity.Transcript) ([]byte, error) {
	doc := document.New()
	defer doc.Close()

	titlePar := doc.AddParagraph()
	titlePar.SetStyle("Heading1")
	titlePar.AddRun().AddText(title(t))

	subtitleRun := doc.AddParagraph().AddRun()
	subtitleRun.Properties().SetItalic(true)
	subtitleRun.AddText(subtitle(t))

	for _, m := range t.Messages {
		doc.AddParagraph()

		rolePar := doc.AddParagraph()
		roleRun := rolePar.AddRun()
		roleRun.Properties().SetBold(true)
		roleRun.AddText(roleLabel(m.Role) + ":")

		bodyRun := doc.AddParagraph().AddRun()
		bodyRun.AddText(m.Content)
	}

	var buf bytes.Buffer
	if err := doc.Save(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (mf *DOCXFormatter) ContentType() string {
	return docxContentType
}

func (mf *DOCXFormatter) FileExtension() string {
	return docxFileExtension
}
