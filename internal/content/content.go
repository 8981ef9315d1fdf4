// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package content inspects decoded page content streams: whether they show
// text and which XObjects they draw.
package content

import (
	"github.com/tsawler/tabula/contentstream"
	"github.com/tsawler/tabula/core"
)

// ShowsText reports whether a content stream shows at least one non-empty
// string. Unparseable streams count as showing text so that a parser
// limitation never marks a page as scanned.
func ShowsText(data []byte) bool {
	if len(data) == 0 {
		return false
	}
	ops, err := contentstream.NewParser(data).Parse()
	if err != nil {
		return true
	}
	for _, op := range ops {
		switch op.Operator {
		case "Tj", "'", "\"":
			if len(op.Operands) > 0 && nonEmptyString(op.Operands[len(op.Operands)-1]) {
				return true
			}
		case "TJ":
			for _, operand := range op.Operands {
				arr, ok := operand.(core.Array)
				if !ok {
					continue
				}
				for _, el := range arr {
					if nonEmptyString(el) {
						return true
					}
				}
			}
		}
	}
	return false
}

// DrawnXObjects returns the resource names painted with the Do operator.
// Resource dictionaries are often shared between pages, so only names drawn
// by the stream belong to the page.
func DrawnXObjects(data []byte) (map[string]bool, error) {
	drawn := make(map[string]bool)
	if len(data) == 0 {
		return drawn, nil
	}
	ops, err := contentstream.NewParser(data).Parse()
	if err != nil {
		return nil, err
	}
	for _, op := range ops {
		if op.Operator != "Do" || len(op.Operands) == 0 {
			continue
		}
		if name, ok := op.Operands[len(op.Operands)-1].(core.Name); ok {
			drawn[string(name)] = true
		}
	}
	return drawn, nil
}

func nonEmptyString(o core.Object) bool {
	s, ok := o.(core.String)
	return ok && len(s) > 0
}
