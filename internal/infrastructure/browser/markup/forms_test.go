package markup

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const applicationForm = `<!DOCTYPE html>
<html><body>
<form id="apply-form" action="/submit">
	<label for="first">First name *</label>
	<input id="first" name="first_name" type="text">
	<label>Email <input name="email" type="email" required></label>
	<input name="phone" type="tel" placeholder="Phone number" aria-required="true">
	<select id="country" name="country">
		<option value="">Choose</option>
		<option value="de">Germany</option>
	</select>
	<textarea name="cover_letter" aria-label="Cover letter"></textarea>
	<input type="radio" name="remote" value="yes"> <input type="radio" name="remote" value="no">
	<input type="hidden" name="csrf" value="x">
	<input type="file" name="resume">
	<button type="submit">Send</button>
</form>
</body></html>`

func TestExtractForms_Fields(t *testing.T) {
	forms, err := ExtractForms(applicationForm)
	require.NoError(t, err)
	require.Len(t, forms, 1)

	form := forms[0]
	assert.Equal(t, "#apply-form", form.Selector)
	assert.Equal(t, "/submit", form.Action)
	require.Len(t, form.Fields, 8)

	first := form.Fields[0]
	assert.Equal(t, "#first", first.Selector)
	assert.Equal(t, "First name", first.Label)
	assert.True(t, first.Required)

	email := form.Fields[1]
	assert.Equal(t, `input[name="email"]`, email.Selector)
	assert.Equal(t, "Email", email.Label)
	assert.Equal(t, "email", email.ElementType())
	assert.True(t, email.Required)

	phone := form.Fields[2]
	assert.Equal(t, "tel", phone.Type)
	assert.Equal(t, "Phone number", phone.Placeholder)
	assert.True(t, phone.Required)

	country := form.Fields[3]
	assert.Equal(t, "select", country.ElementType())
	assert.Equal(t, []string{"Choose", "Germany"}, country.Options)

	cover := form.Fields[4]
	assert.Equal(t, "textarea", cover.ElementType())
	assert.Equal(t, "Cover letter", cover.Label)

	assert.Equal(t, `input[name="remote"][value="yes"]`, form.Fields[5].Selector)
	assert.Equal(t, `input[name="remote"][value="no"]`, form.Fields[6].Selector)
	assert.Equal(t, "file", form.Fields[7].Type)
}

func TestExtractForms_LooseFieldsAndPaths(t *testing.T) {
	forms, err := ExtractForms(`<html><body>
		<div id="app"><div><input placeholder="Your name"></div><div><input placeholder="Email"></div></div>
	</body></html>`)
	require.NoError(t, err)
	require.Len(t, forms, 1)

	assert.Equal(t, "body", forms[0].Selector)
	require.Len(t, forms[0].Fields, 2)
	assert.Equal(t, "#app > div:nth-of-type(1) > input:nth-of-type(1)", forms[0].Fields[0].Selector)
	assert.Equal(t, "#app > div:nth-of-type(2) > input:nth-of-type(1)", forms[0].Fields[1].Selector)
}

func TestExtractForms_NoForms(t *testing.T) {
	forms, err := ExtractForms(`<html><body><a href="/apply">Apply now</a></body></html>`)
	require.NoError(t, err)
	assert.Empty(t, forms)
}

func TestIDSelector(t *testing.T) {
	assert.Equal(t, "#email", idSelector("email"))
	assert.Equal(t, `[id="1:email"]`, idSelector("1:email"))
}
