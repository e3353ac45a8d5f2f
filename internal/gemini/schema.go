package gemini

import (
	"encoding/json"

	"github.com/ai-rustic/OCR-Bill2Sheet/internal/config"
)

const invoiceItemsPrompt = "You are an OCR assistant that extracts structured bill data from an image. " +
	"Return a JSON object with two keys: 'invoice' and 'items'. " +
	"'invoice' describes invoice-level metadata with these keys: form_no, serial_no, invoice_no, issued_date (YYYY-MM-DD), " +
	"seller_name, seller_tax_code. " +
	"'items' is an array where every element contains: item_name, unit, quantity, unit_price, total_amount, vat_rate, vat_amount. " +
	"Use null for any value that cannot be determined. Respond with JSON only (no markdown, no code fences)."

const flatItemsPrompt = "You are an OCR assistant that extracts structured bill data from an image. " +
	"Return a JSON array with one element per line item. Every element contains: form_no, serial_no, invoice_no, " +
	"issued_date (YYYY-MM-DD), seller_name, seller_tax_code, item_name, unit, quantity, unit_price, total_amount, " +
	"vat_rate, vat_amount. " +
	"Use null for any value that cannot be determined. Respond with JSON only (no markdown, no code fences)."

var invoiceItemsSchema = json.RawMessage(`{
	"type": "object",
	"properties": {
		"invoice": {
			"type": "object",
			"properties": {
				"form_no": {"type": "string"},
				"serial_no": {"type": "string"},
				"invoice_no": {"type": "string"},
				"issued_date": {"type": "string", "format": "date"},
				"seller_name": {"type": "string"},
				"seller_tax_code": {"type": "string"}
			},
			"required": ["form_no", "serial_no", "invoice_no", "issued_date", "seller_name", "seller_tax_code"]
		},
		"items": {
			"type": "array",
			"items": {
				"type": "object",
				"properties": {
					"item_name": {"type": "string"},
					"unit": {"type": "string"},
					"quantity": {"type": "number"},
					"unit_price": {"type": "number"},
					"total_amount": {"type": "number"},
					"vat_rate": {"type": "number"},
					"vat_amount": {"type": "number"}
				},
				"required": ["item_name", "unit", "quantity", "unit_price", "total_amount", "vat_rate", "vat_amount"]
			}
		}
	},
	"required": ["invoice", "items"]
}`)

var flatItemsSchema = json.RawMessage(`{
	"type": "array",
	"items": {
		"type": "object",
		"properties": {
			"form_no": {"type": "string"},
			"serial_no": {"type": "string"},
			"invoice_no": {"type": "string"},
			"issued_date": {"type": "string", "format": "date"},
			"seller_name": {"type": "string"},
			"seller_tax_code": {"type": "string"},
			"item_name": {"type": "string"},
			"unit": {"type": "string"},
			"quantity": {"type": "number"},
			"unit_price": {"type": "number"},
			"total_amount": {"type": "number"},
			"vat_rate": {"type": "number"},
			"vat_amount": {"type": "number"}
		},
		"required": ["form_no", "serial_no", "invoice_no", "issued_date", "seller_name", "seller_tax_code", "item_name", "unit", "quantity", "unit_price", "total_amount", "vat_rate", "vat_amount"]
	}
}`)

func promptFor(shape config.ResponseShape) string {
	if shape == config.ShapeFlatItems {
		return flatItemsPrompt
	}
	return invoiceItemsPrompt
}

func schemaFor(shape config.ResponseShape) json.RawMessage {
	if shape == config.ShapeFlatItems {
		return flatItemsSchema
	}
	return invoiceItemsSchema
}
