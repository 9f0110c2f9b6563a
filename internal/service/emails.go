package service

import (
	"bytes"
	"html/template"

	"github.com/iliyamo/venue-reservation/internal/model"
)

const (
	invoiceSubject = "Factura de reserva"
	cancelSubject  = "Reservación cancelada"
)

var (
	invoiceBody = template.Must(template.New("invoice").Parse(
		`Hola {{.Name}} {{.Lastname}},<br> Te enviamos la factura electrónica de tu reserva. Gracias por utilizar EventSpace!`))
	cancelBody = template.Must(template.New("cancel").Parse(
		`Hola {{.Name}} {{.Lastname}},<br> Tu reservación ha sido cancelada. Gracias por utilizar EventSpace!`))
)

func renderBody(t *template.Template, u model.User) (string, error) {
	var buf bytes.Buffer
	if err := t.Execute(&buf, u); err != nil {
		return "", err
	}
	return buf.String(), nil
}

func invoiceMessage(u model.User, doc model.Document) (model.Message, error) {
	body, err := renderBody(invoiceBody, u)
	if err != nil {
		return model.Message{}, err
	}
	return model.Message{
		To:          u.Email,
		Subject:     invoiceSubject,
		HTML:        body,
		Attachments: []model.Attachment{{Filename: doc.Filename, Content: doc.Content}},
	}, nil
}

func cancelMessage(u model.User) (model.Message, error) {
	body, err := renderBody(cancelBody, u)
	if err != nil {
		return model.Message{}, err
	}
	return model.Message{To: u.Email, Subject: cancelSubject, HTML: body}, nil
}
