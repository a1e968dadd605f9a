package payment

import (
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"strings"

	"golang.org/x/text/encoding/charmap"
)

type gatewayReply struct {
	XMLName xml.Name
	Code    string         `xml:"code"`
	Date    string         `xml:"date"`
	Errors  []gatewayError `xml:"error"`
}

type gatewayError struct {
	Code    string `xml:"code"`
	Message string `xml:"message"`
}

// ParseGatewayResponse validates a checkout reply. A body that is not
// well-formed XML yields ErrMalformedGatewayResponse; a well-formed reply
// without a valid code and a date yields ErrAuthorizationRejected.
func ParseGatewayResponse(raw []byte) (*GatewayResponse, error) {
	if err := checkWellFormed(raw); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedGatewayResponse, err)
	}

	var reply gatewayReply
	if err := newXMLDecoder(raw).Decode(&reply); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedGatewayResponse, err)
	}

	if len(reply.Errors) > 0 {
		details := make([]string, 0, len(reply.Errors))
		for _, e := range reply.Errors {
			details = append(details, strings.TrimSpace(e.Code)+": "+strings.TrimSpace(e.Message))
		}
		return nil, fmt.Errorf("%w: %s", ErrAuthorizationRejected, strings.Join(details, "; "))
	}

	code := strings.TrimSpace(reply.Code)
	date := strings.TrimSpace(reply.Date)

	if !IsValidTransactionCode(code) {
		return nil, fmt.Errorf("%w: invalid transaction code %q", ErrAuthorizationRejected, code)
	}
	if date == "" {
		return nil, fmt.Errorf("%w: missing transaction date", ErrAuthorizationRejected)
	}

	return &GatewayResponse{
		TransactionCode: code,
		TransactionDate: date,
		Raw:             raw,
	}, nil
}

func newXMLDecoder(raw []byte) *xml.Decoder {
	dec := xml.NewDecoder(bytes.NewReader(raw))
	dec.CharsetReader = charsetReader
	return dec
}

func charsetReader(label string, input io.Reader) (io.Reader, error) {
	switch strings.ToLower(label) {
	case "iso-8859-1", "iso8859-1", "latin1", "latin-1":
		return charmap.ISO8859_1.NewDecoder().Reader(input), nil
	case "windows-1252", "cp1252":
		return charmap.Windows1252.NewDecoder().Reader(input), nil
	default:
		return nil, fmt.Errorf("unsupported charset %q", label)
	}
}

// checkWellFormed walks every token: exactly one root element, balanced tags,
// nothing but whitespace outside it.
func checkWellFormed(raw []byte) error {
	dec := newXMLDecoder(raw)

	depth, roots := 0, 0
	for {
		tok, err := dec.Token()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return err
		}

		switch t := tok.(type) {
		case xml.StartElement:
			if depth == 0 {
				roots++
				if roots > 1 {
					return errors.New("multiple root elements")
				}
			}
			depth++
		case xml.EndElement:
			depth--
		case xml.CharData:
			if depth == 0 && len(bytes.TrimSpace(t)) > 0 {
				return errors.New("text outside root element")
			}
		}
	}

	if roots == 0 {
		return errors.New("no root element")
	}
	return nil
}
