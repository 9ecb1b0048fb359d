package feed

import (
	"context"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rajavignesh573/shopmatch/internal/common"
	"github.com/rajavignesh573/shopmatch/internal/model"
)

const productFeedJSON = `[
	{"id": "prod-1", "title": "UPPAbaby Vista V2 Stroller", "brand": "UPPAbaby", "category_id": "strollers", "gtin": "0810030091234", "price": 899.99},
	{"id": "prod-2", "title": "Bugaboo Fox 3"}
]`

const listingFeedJSON = `[
	{"external_key": "B0A1", "title": "UPPAbaby Vista V2", "brand": "UPPAbaby", "price": 849.99},
	{"source_code": "EBY", "external_key": "E-9", "title": "Bugaboo Fox3"}
]`

func TestParseProductFeed(t *testing.T) {
	products, err := ParseProductFeed(strings.NewReader(productFeedJSON))
	require.NoError(t, err)
	require.Len(t, products, 2)

	assert.Equal(t, "prod-1", products[0].ID)
	assert.Equal(t, "UPPAbaby", products[0].Brand)
	require.NotNil(t, products[0].Price)
	assert.InDelta(t, 899.99, *products[0].Price, 1e-9)
	assert.Nil(t, products[1].Price)
}

func TestParseProductFeed_Invalid(t *testing.T) {
	_, err := ParseProductFeed(strings.NewReader(`{"not": "an array"}`))
	assert.ErrorIs(t, err, common.ErrInvalidInput)

	_, err = ParseProductFeed(strings.NewReader(`[{"title": "no id"}]`))
	assert.ErrorIs(t, err, common.ErrInvalidInput)
}

func TestParseListingFeed_SourceOverride(t *testing.T) {
	listings, err := ParseListingFeed(strings.NewReader(listingFeedJSON), "AMZ")
	require.NoError(t, err)
	require.Len(t, listings, 2)

	// The explicit source wins over the record's own source_code.
	assert.Equal(t, "AMZ", listings[0].SourceCode)
	assert.Equal(t, "AMZ", listings[1].SourceCode)
}

func TestParseListingFeed_RecordSource(t *testing.T) {
	listings, err := ParseListingFeed(strings.NewReader(listingFeedJSON), "")
	require.Error(t, err)
	assert.ErrorIs(t, err, common.ErrInvalidInput)
	assert.Nil(t, listings)

	onlySourced := `[{"source_code": "EBY", "external_key": "E-9", "title": "Bugaboo Fox3"}]`
	listings, err = ParseListingFeed(strings.NewReader(onlySourced), "")
	require.NoError(t, err)
	require.Len(t, listings, 1)
	assert.Equal(t, "EBY", listings[0].SourceCode)
}

const listingPageHTML = `
<html><body>
	<div data-external-key="B0A1" data-gtin="0810030091234" data-category="strollers">
		<span class="title">UPPAbaby  Vista V2</span>
		<span class="brand">UPPAbaby</span>
		<span class="price">$1,299.99</span>
	</div>
	<div data-external-key="B0A2">
		<span class="title">Bugaboo Fox 3</span>
	</div>
	<div data-external-key="">
		<span class="title">Orphan row without a key</span>
	</div>
</body></html>`

func TestParseListingHTML(t *testing.T) {
	listings, err := ParseListingHTML(strings.NewReader(listingPageHTML), "AMZ")
	require.NoError(t, err)
	require.Len(t, listings, 2)

	first := listings[0]
	assert.Equal(t, "AMZ", first.SourceCode)
	assert.Equal(t, "B0A1", first.ExternalKey)
	assert.Equal(t, "UPPAbaby Vista V2", first.Title)
	assert.Equal(t, "strollers", first.CategoryID)
	assert.Equal(t, "0810030091234", first.GTIN)
	require.NotNil(t, first.Price)
	assert.InDelta(t, 1299.99, *first.Price, 1e-9)

	assert.Nil(t, listings[1].Price)
}

func TestParseListingHTML_Errors(t *testing.T) {
	_, err := ParseListingHTML(strings.NewReader(listingPageHTML), "")
	assert.ErrorIs(t, err, common.ErrInvalidInput)

	_, err = ParseListingHTML(strings.NewReader("<html><body>nothing here</body></html>"), "AMZ")
	assert.ErrorIs(t, err, common.ErrInvalidInput)
}

func TestParsePrice(t *testing.T) {
	tests := []struct {
		text string
		want float64
		ok   bool
	}{
		{"$849.99", 849.99, true},
		{"$1,299.99", 1299.99, true},
		{"EUR 45", 45, true},
		{"call for price", 0, false},
		{"", 0, false},
	}
	for _, tt := range tests {
		got, ok := parsePrice(tt.text)
		assert.Equal(t, tt.ok, ok, tt.text)
		if tt.ok {
			assert.InDelta(t, tt.want, got, 1e-9, tt.text)
		}
	}
}

type recordingWriter struct {
	batches  []int
	failFrom int // fail when this many batches have been written, -1 disables
}

func (r *recordingWriter) save(count int) error {
	if r.failFrom >= 0 && len(r.batches) >= r.failFrom {
		return assert.AnError
	}
	r.batches = append(r.batches, count)
	return nil
}

func (r *recordingWriter) SaveProducts(_ context.Context, products []model.Product) error {
	return r.save(len(products))
}

func (r *recordingWriter) SaveListings(_ context.Context, listings []model.ExternalListing) error {
	return r.save(len(listings))
}

func TestImporter_Batches(t *testing.T) {
	writer := &recordingWriter{failFrom: -1}
	importer := NewImporter(writer, writer, io.Discard)
	importer.batchSize = 2

	products := make([]model.Product, 5)
	for i := range products {
		products[i] = model.Product{ID: "p", Title: "t"}
	}

	count, err := importer.ImportProducts(context.Background(), products)
	require.NoError(t, err)
	assert.Equal(t, 5, count)
	assert.Equal(t, []int{2, 2, 1}, writer.batches)
}

func TestImporter_StopsOnWriteError(t *testing.T) {
	writer := &recordingWriter{failFrom: 1}
	importer := NewImporter(writer, writer, io.Discard)
	importer.batchSize = 2

	listings := make([]model.ExternalListing, 4)
	for i := range listings {
		listings[i] = model.ExternalListing{SourceCode: "AMZ", ExternalKey: "k", Title: "t"}
	}

	count, err := importer.ImportListings(context.Background(), listings)
	require.Error(t, err)
	assert.Equal(t, 2, count)
}

func TestImporter_Empty(t *testing.T) {
	importer := NewImporter(&recordingWriter{failFrom: -1}, &recordingWriter{failFrom: -1}, io.Discard)

	count, err := importer.ImportProducts(context.Background(), nil)
	require.NoError(t, err)
	assert.Equal(t, 0, count)
}
