package view

import (
	"github.com/yourorg/catalogdash/internal/form"
)

type Field struct {
	Name        string
	Label       string
	Type        string
	Step        string
	Min         string
	Max         string
	Placeholder string
	Required    bool
	Value       string
	Error       string
}

type DialogView struct {
	Open        bool
	Heading     string
	Subheading  string
	SubmitLabel string
	Saving      bool
	Fields      []Field
}

type fieldSpec struct {
	label, kind, step, min, max, placeholder string
	required                                 bool
}

var fieldSpecs = map[string]fieldSpec{
	form.FieldTitle:              {label: "Title", kind: "text", placeholder: "Enter product title", required: true},
	form.FieldDescription:        {label: "Description", kind: "text", placeholder: "Enter product description"},
	form.FieldPrice:              {label: "Price", kind: "number", step: "0.01", min: "0", placeholder: "0.00", required: true},
	form.FieldStock:              {label: "Stock", kind: "number", min: "0", placeholder: "0", required: true},
	form.FieldCategory:           {label: "Category", kind: "text", placeholder: "Enter category", required: true},
	form.FieldBrand:              {label: "Brand", kind: "text", placeholder: "Enter brand"},
	form.FieldDiscountPercentage: {label: "Discount %", kind: "number", step: "0.01", min: "0", max: "100", placeholder: "0"},
}

func NewDialogView(open, editing, saving bool, f *form.Form) DialogView {
	if !open || f == nil {
		return DialogView{}
	}
	v := DialogView{
		Open:        true,
		Heading:     "Add New Product",
		Subheading:  "Fill in the details to add a new product.",
		SubmitLabel: "Add Product",
		Saving:      saving,
	}
	if editing {
		v.Heading = "Edit Product"
		v.Subheading = "Update the product information below."
		v.SubmitLabel = "Update"
	}
	if saving {
		v.SubmitLabel = "Saving..."
	}
	for _, name := range form.Fields {
		meta := fieldSpecs[name]
		v.Fields = append(v.Fields, Field{
			Name:        name,
			Label:       meta.label,
			Type:        meta.kind,
			Step:        meta.step,
			Min:         meta.min,
			Max:         meta.max,
			Placeholder: meta.placeholder,
			Required:    meta.required,
			Value:       f.Draft.Value(name),
			Error:       f.Errors[name],
		})
	}
	return v
}
