package pms

import (
	"bytes"
	"context"
	"encoding/xml"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/prohotelai/AI-HOTEL-ASSISTANT-sub002/internal/domain/integration"
)

const (
	soapEnvelopeNS = "http://schemas.xmlsoap.org/soap/envelope/"
	soapPath       = "/soap"
)

// SOAPFault is the decoded body of a SOAP 1.1 fault. It is the cause of SOAP_ERROR.
type SOAPFault struct {
	FaultCode   string `xml:"faultcode"`
	FaultString string `xml:"faultstring"`
	Detail      struct {
		ErrorCode string `xml:"ErrorCode"`
		Message   string `xml:"Message"`
	} `xml:"detail"`
}

// Error implements the error interface
func (f *SOAPFault) Error() string {
	code := f.Detail.ErrorCode
	if code == "" {
		code = f.FaultCode
	}
	return fmt.Sprintf("soap fault %s: %s", code, f.FaultString)
}

type soapRequestEnvelope struct {
	XMLName xml.Name        `xml:"soap:Envelope"`
	SoapNS  string          `xml:"xmlns:soap,attr"`
	Body    soapRequestBody `xml:"soap:Body"`
}

type soapRequestBody struct {
	Content any
}

type soapResponseEnvelope struct {
	XMLName xml.Name `xml:"Envelope"`
	Body    struct {
		Fault *SOAPFault `xml:"Fault"`
		Inner []byte     `xml:",innerxml"`
	} `xml:"Body"`
}

// SOAPClient posts SOAP 1.1 envelopes to <base>/soap.
// Faults are SOAP_ERROR and are not retried unless their code is listed in retryableFaults.
type SOAPClient struct {
	http            *Client
	retrier         *Retrier
	namespace       string
	retryableFaults map[string]struct{}
}

// NewSOAPClient wraps a resilient client. namespace prefixes SOAPAction headers.
func NewSOAPClient(client *Client, namespace string, retryableFaults []string) *SOAPClient {
	faults := make(map[string]struct{}, len(retryableFaults))
	for _, f := range retryableFaults {
		faults[f] = struct{}{}
	}
	return &SOAPClient{
		http:            client,
		retrier:         client.retrier,
		namespace:       namespace,
		retryableFaults: faults,
	}
}

// BuildEnvelope renders the request envelope for payload
func BuildEnvelope(payload any) ([]byte, error) {
	out, err := xml.Marshal(soapRequestEnvelope{
		SoapNS: soapEnvelopeNS,
		Body:   soapRequestBody{Content: payload},
	})
	if err != nil {
		return nil, err
	}
	return append([]byte(xml.Header), out...), nil
}

// Call sends one operation and decodes the operation's result element into result
func (c *SOAPClient) Call(ctx context.Context, action string, payload any, result any) error {
	req, err := c.request(action, payload)
	if err != nil {
		return err
	}
	return c.retrier.Run(ctx, action, func(ctx context.Context) error {
		resp, err := c.http.send(ctx, req)
		if err != nil {
			return err
		}
		return decodeSOAPResponse(resp, result)
	}, c.isRetryable)
}

// CallOnce sends a non-idempotent operation exactly once
func (c *SOAPClient) CallOnce(ctx context.Context, action string, payload any, result any) error {
	req, err := c.request(action, payload)
	if err != nil {
		return err
	}
	resp, err := c.http.DoOnce(ctx, req)
	if err != nil {
		return err
	}
	return decodeSOAPResponse(resp, result)
}

func (c *SOAPClient) request(action string, payload any) (Request, error) {
	envelope, err := BuildEnvelope(payload)
	if err != nil {
		return Request{}, integration.WrapIntegrationError(integration.CodeInvalidPayload,
			"failed to build SOAP envelope", http.StatusBadRequest, err)
	}
	return Request{
		Operation: action,
		Method:    http.MethodPost,
		Path:      soapPath,
		Header: http.Header{
			"Soapaction": {`"` + c.namespace + "/" + action + `"`},
			"Accept":     {"text/xml"},
		},
		RawBody:         envelope,
		ContentType:     "text/xml; charset=utf-8",
		AcceptAnyStatus: true,
	}, nil
}

func (c *SOAPClient) isRetryable(err *integration.IntegrationError) bool {
	if err.Code == integration.CodeSOAPError {
		var fault *SOAPFault
		if !errors.As(err.Cause, &fault) {
			return false
		}
		_, byDetail := c.retryableFaults[fault.Detail.ErrorCode]
		_, byCode := c.retryableFaults[fault.FaultCode]
		return byDetail || byCode
	}
	return c.http.isRetryable(err)
}

// decodeSOAPResponse extracts a fault or the result element from a response
func decodeSOAPResponse(resp *Response, result any) error {
	ok := resp.StatusCode >= 200 && resp.StatusCode < 300

	var env soapResponseEnvelope
	if err := xml.Unmarshal(resp.Body, &env); err != nil {
		if !ok {
			return integration.NewHTTPError(resp.StatusCode, strings.TrimSpace(resp.Text()))
		}
		return integration.NewInvalidResponseError("malformed SOAP envelope", err)
	}
	if env.Body.Fault != nil {
		status := resp.StatusCode
		if ok {
			status = http.StatusBadGateway
		}
		msg := env.Body.Fault.FaultString
		if env.Body.Fault.Detail.Message != "" {
			msg = env.Body.Fault.Detail.Message
		}
		return integration.WrapIntegrationError(integration.CodeSOAPError, msg, status, env.Body.Fault)
	}
	if !ok {
		return integration.NewHTTPError(resp.StatusCode, strings.TrimSpace(resp.Text()))
	}
	if result == nil {
		return nil
	}
	inner := bytes.TrimSpace(env.Body.Inner)
	if len(inner) == 0 {
		return integration.NewInvalidResponseError("SOAP body is empty", nil)
	}
	if err := xml.Unmarshal(inner, result); err != nil {
		return integration.NewInvalidResponseError("SOAP result does not match the expected element", err)
	}
	return nil
}
