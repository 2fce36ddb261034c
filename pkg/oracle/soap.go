package oracle

import (
	"encoding/xml"
	"strings"
)

// SOAPEnvelopeNS is the SOAP 1.1 envelope namespace.
const SOAPEnvelopeNS = "http://schemas.xmlsoap.org/soap/envelope/"

// requestEnvelope is the outgoing document/literal wrapped envelope. The
// operation element carries the "tns:" prefix bound on the envelope.
type requestEnvelope struct {
	XMLName xml.Name    `xml:"soapenv:Envelope"`
	SoapNS  string      `xml:"xmlns:soapenv,attr"`
	TNS     string      `xml:"xmlns:tns,attr"`
	Body    requestBody `xml:"soapenv:Body"`
}

type requestBody struct {
	Operation operation
}

type operation struct {
	XMLName xml.Name
	Arg     *argument `xml:"arg0,omitempty"`
}

// argument is either a single string or a StringArray of <item> elements.
type argument struct {
	Value string   `xml:",chardata"`
	Items []string `xml:"item"`
}

func newRequest(namespace, op string, arg *argument) *requestEnvelope {
	return &requestEnvelope{
		SoapNS: SOAPEnvelopeNS,
		TNS:    namespace,
		Body: requestBody{Operation: operation{
			XMLName: xml.Name{Local: "tns:" + op},
			Arg:     arg,
		}},
	}
}

func stringArg(v string) *argument {
	return &argument{Value: v}
}

func listArg(items []string) *argument {
	return &argument{Items: append([]string(nil), items...)}
}

// responseEnvelope matches any SOAP 1.1 response; element names are matched
// by local name so the server's prefixes do not matter.
type responseEnvelope struct {
	Body responseBody `xml:"Body"`
}

type responseBody struct {
	Fault  *soapFault      `xml:"Fault"`
	Result *operationReply `xml:",any"`
}

type operationReply struct {
	XMLName xml.Name
	Return  []stringArray `xml:"return"`
}

type stringArray struct {
	Items []string `xml:"item"`
}

func (r *operationReply) items() []string {
	var out []string
	for _, ret := range r.Return {
		for _, item := range ret.Items {
			out = append(out, strings.TrimSpace(item))
		}
	}
	return out
}

type soapFault struct {
	Code   string `xml:"faultcode"`
	String string `xml:"faultstring"`
	Detail struct {
		Inner string `xml:",innerxml"`
	} `xml:"detail"`
}

// rejectsArgument reports whether the fault is the service refusing an
// identifier rather than an internal service error.
func (f *soapFault) rejectsArgument() bool {
	if strings.Contains(f.Detail.Inner, "IllegalArgumentException") {
		return true
	}
	code := f.Code
	if i := strings.LastIndex(code, ":"); i >= 0 {
		code = code[i+1:]
	}
	return code == "Client"
}

func (f *soapFault) message() string {
	if s := strings.TrimSpace(f.String); s != "" {
		return s
	}
	return strings.TrimSpace(f.Code)
}
