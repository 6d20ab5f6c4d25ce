package browser

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"slices"
	"strings"

	"github.com/chromedp/cdproto/cdp"
	"github.com/chromedp/cdproto/dom"
	"github.com/chromedp/cdproto/runtime"
	"github.com/chromedp/chromedp"

	"formprobe/metadata"
)

// FillFunc applies one value to a resolved element.
type FillFunc func(ctx context.Context, s *Session, el Element, field metadata.Field, value string) error

// defaultFillFuncs maps semantic field types to fill strategies. Types
// without an entry fall back to the text strategy.
func defaultFillFuncs() map[metadata.FieldType]FillFunc {
	return map[metadata.FieldType]FillFunc{
		metadata.FieldText:     fillText,
		metadata.FieldPassword: fillText,
		metadata.FieldEmail:    fillText,
		metadata.FieldNumber:   fillText,
		metadata.FieldPhone:    fillText,
		metadata.FieldURL:      fillText,
		metadata.FieldTextarea: fillText,
		metadata.FieldDate:     fillText,
		metadata.FieldTime:     fillText,
		metadata.FieldDatetime: fillText,
		metadata.FieldCheckbox: fillCheckbox,
		metadata.FieldRadio:    fillRadio,
		metadata.FieldSelect:   fillSelect,
		metadata.FieldFile:     fillFile,
		metadata.FieldHidden:   fillHidden,
	}
}

// Fill applies the value to the element using the strategy registered for
// the field's semantic type.
func (s *Session) Fill(ctx context.Context, el Element, field metadata.Field, value string) error {
	fill, ok := s.fills[field.Type]
	if !ok {
		fill = fillText
	}
	return fill(ctx, s, el, field, value)
}

func nodeSel(el Element) []cdp.NodeID {
	return []cdp.NodeID{el.NodeID}
}

// fillText clears the control and types the literal value.
func fillText(ctx context.Context, s *Session, el Element, _ metadata.Field, value string) error {
	return s.run(ctx, s.cfg.ActionTimeout,
		chromedp.Clear(nodeSel(el), chromedp.ByNodeID),
		chromedp.SendKeys(nodeSel(el), value, chromedp.ByNodeID),
	)
}

// truthy interprets a generated value as a checkbox state.
func truthy(value string) bool {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "true", "1", "yes", "checked":
		return true
	}
	return false
}

// fillCheckbox clicks only when the live checked state differs from the
// desired one, so repeated fills are idempotent.
func fillCheckbox(ctx context.Context, s *Session, el Element, _ metadata.Field, value string) error {
	desired := truthy(value)

	var checked bool
	if err := s.callOnNode(ctx, el.NodeID, "function() { return !!this.checked }", &checked); err != nil {
		return fmt.Errorf("reading checked state: %w", err)
	}
	if checked == desired {
		return nil
	}
	return s.run(ctx, s.cfg.ActionTimeout, chromedp.Click(nodeSel(el), chromedp.ByNodeID))
}

// fillRadio clicks the input sharing the field's group name with the desired
// value. Values outside the declared option set fail without touching the
// page.
func fillRadio(ctx context.Context, s *Session, _ Element, field metadata.Field, value string) error {
	if !slices.Contains(field.Options, value) {
		return fmt.Errorf("value %q is not a declared option of %q", value, field.ID)
	}
	sel := fmt.Sprintf(`input[type="radio"][name=%q][value=%q]`, field.ID, value)
	if err := s.run(ctx, s.cfg.ActionTimeout, chromedp.Click(sel, chromedp.ByQuery)); err != nil {
		return fmt.Errorf("clicking radio option %q: %w", value, err)
	}
	return nil
}

const selectOptionJS = `function(value) {
	for (const option of this.options) {
		if (option.value === value || option.label === value) {
			this.value = option.value;
			this.dispatchEvent(new Event('input', {bubbles: true}));
			this.dispatchEvent(new Event('change', {bubbles: true}));
			return true;
		}
	}
	return false;
}`

// fillSelect picks the option equal to the desired value. Both the declared
// option set and the live control must contain it.
func fillSelect(ctx context.Context, s *Session, el Element, field metadata.Field, value string) error {
	if !slices.Contains(field.Options, value) {
		return fmt.Errorf("value %q is not a declared option of %q", value, field.ID)
	}

	var picked bool
	if err := s.callOnNode(ctx, el.NodeID, selectOptionJS, &picked, value); err != nil {
		return fmt.Errorf("selecting option %q: %w", value, err)
	}
	if !picked {
		return fmt.Errorf("option %q not present in select %q", value, field.ID)
	}
	return nil
}

// fillFile attaches the value as an upload; the path must exist on disk.
func fillFile(ctx context.Context, s *Session, el Element, field metadata.Field, value string) error {
	if _, err := os.Stat(value); err != nil {
		return fmt.Errorf("upload path for %q: %w", field.ID, err)
	}
	return s.run(ctx, s.cfg.ActionTimeout,
		chromedp.SetUploadFiles(nodeSel(el), []string{value}, chromedp.ByNodeID),
	)
}

// fillHidden sets the value property directly without simulating user
// interaction.
func fillHidden(ctx context.Context, s *Session, el Element, _ metadata.Field, value string) error {
	return s.callOnNode(ctx, el.NodeID, "function(value) { this.value = value }", nil, value)
}

// callOnNode invokes a JavaScript function with the node as receiver,
// decoding the return value into out when non-nil.
func (s *Session) callOnNode(ctx context.Context, id cdp.NodeID, fn string, out any, args ...any) error {
	return s.run(ctx, s.cfg.ActionTimeout, chromedp.ActionFunc(func(ctx context.Context) error {
		obj, err := dom.ResolveNode().WithNodeID(id).Do(ctx)
		if err != nil {
			return fmt.Errorf("resolving node: %w", err)
		}

		callArgs := make([]*runtime.CallArgument, 0, len(args))
		for _, arg := range args {
			data, err := json.Marshal(arg)
			if err != nil {
				return fmt.Errorf("encoding argument: %w", err)
			}
			callArgs = append(callArgs, &runtime.CallArgument{Value: data})
		}

		res, exc, err := runtime.CallFunctionOn(fn).
			WithObjectID(obj.ObjectID).
			WithArguments(callArgs).
			WithReturnByValue(true).
			Do(ctx)
		if err != nil {
			return fmt.Errorf("calling function on node: %w", err)
		}
		if exc != nil {
			return exc
		}
		if out != nil && res != nil && res.Value != nil {
			return json.Unmarshal(res.Value, out)
		}
		return nil
	}))
}
