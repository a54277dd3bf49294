/*
 * matproj.go, part of golayers.
 *
 * Copyright 2023 Raul Mera <rmera{at}chemDOThelsinkiDOTfi>
 *
 * This program is free software; you can redistribute it and/or modify
 * it under the terms of the GNU Lesser General Public License as
 * published by the Free Software Foundation; either version 2.1 of the
 * License, or (at your option) any later version.
 *
 * This program is distributed in the hope that it will be useful,
 * but WITHOUT ANY WARRANTY; without even the implied warranty of
 * MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
 * GNU General Public License for more details.
 *
 * You should have received a copy of the GNU Lesser General
 * Public License along with this program.  If not, see
 * <http://www.gnu.org/licenses/>.
 *
 * golayers is currently developed at the Universidad de Santiago de Chile
 * (USACH)
 *
 */

/*Package matproj is a minimal client for the summary endpoint of the
Materials Project API, covering only what the layer generation workflow
needs: fetching a bulk prototype structure for an element, by material id or
by element plus spacegroup, with optional stability filters.*/
package matproj

import (
	"encoding/json"
	"fmt"
	"io"
	"math"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"time"

	"gonum.org/v1/gonum/mat"

	layers "github.com/rmera/golayers"
)

// DefaultBaseURL is the production Materials Project API endpoint.
const DefaultBaseURL = "https://api.materialsproject.org"

// summaryFields are the only document fields ever requested.
var summaryFields = "material_id,formula_pretty,energy_above_hull,is_stable,symmetry,structure"

// Client queries the Materials Project API. The zero HTTP client and base
// URL get sensible defaults, so Client{APIKey: key} is ready to use.
type Client struct {
	APIKey  string
	BaseURL string       //empty means DefaultBaseURL
	HTTP    *http.Client //nil means a client with a 30 s timeout
}

// NewClient returns a Client for the production API.
func NewClient(apiKey string) *Client {
	return &Client{APIKey: apiKey}
}

// Query selects summary documents. MaterialID, when set, wins over the
// element/spacegroup search.
type Query struct {
	MaterialID         string
	Element            string
	Spacegroup         int
	StableOnly         bool
	MaxEnergyAboveHull *float64 //eV/atom window upper bound; nil means no window
}

// Symmetry is the symmetry block of a summary document.
type Symmetry struct {
	Number int `json:"number"` //international spacegroup number
}

type docLattice struct {
	Matrix [3][3]float64 `json:"matrix"`
}

type docSpecies struct {
	Element string `json:"element"`
}

type docSite struct {
	Species []docSpecies `json:"species"`
	Abc     [3]float64   `json:"abc"`
}

type docStructure struct {
	Lattice docLattice `json:"lattice"`
	Sites   []docSite  `json:"sites"`
}

// SummaryDoc is one entry of a summary query response, restricted to the
// fields this client requests.
type SummaryDoc struct {
	MaterialID      string        `json:"material_id"`
	FormulaPretty   string        `json:"formula_pretty"`
	EnergyAboveHull *float64      `json:"energy_above_hull"` //nil when the API omits it
	IsStable        bool          `json:"is_stable"`
	Symmetry        *Symmetry     `json:"symmetry"`
	Structure       *docStructure `json:"structure"`
}

type summaryResponse struct {
	Data []SummaryDoc `json:"data"`
}

// Search runs a summary query and returns the matching documents. It fails
// on a missing API key, on transport errors and on any non-200 response.
func (c *Client) Search(q Query) ([]SummaryDoc, error) {
	if c.APIKey == "" {
		return nil, fmt.Errorf("no Materials Project API key: set it in the configuration or in MP_API_KEY")
	}
	base := c.BaseURL
	if base == "" {
		base = DefaultBaseURL
	}
	params := url.Values{}
	params.Set("_fields", summaryFields)
	if q.MaterialID != "" {
		params.Set("material_ids", q.MaterialID)
	} else {
		if q.Element == "" {
			return nil, fmt.Errorf("query needs a material id or an element")
		}
		params.Set("elements", q.Element)
		if q.Spacegroup > 0 {
			params.Set("spacegroup_number", strconv.Itoa(q.Spacegroup))
		}
	}
	if q.StableOnly {
		params.Set("is_stable", "true")
	}
	if q.MaxEnergyAboveHull != nil {
		if *q.MaxEnergyAboveHull < 0 {
			return nil, fmt.Errorf("max energy above hull must be >= 0, got %g", *q.MaxEnergyAboveHull)
		}
		params.Set("energy_above_hull_min", "0")
		params.Set("energy_above_hull_max", strconv.FormatFloat(*q.MaxEnergyAboveHull, 'g', -1, 64))
	}
	req, err := http.NewRequest(http.MethodGet, base+"/materials/summary/?"+params.Encode(), nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("X-API-KEY", c.APIKey)
	req.Header.Set("Accept", "application/json")
	client := c.HTTP
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("querying the Materials Project: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("Materials Project query failed: %s: %s", resp.Status, body)
	}
	var parsed summaryResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("decoding Materials Project response: %w", err)
	}
	return parsed.Data, nil
}

// SelectPreferred picks a deterministic document out of a query result: the
// lowest energy above hull wins, ties broken by material id, and documents
// without an energy sort last. An empty slice is an error.
func SelectPreferred(docs []SummaryDoc) (*SummaryDoc, error) {
	if len(docs) == 0 {
		return nil, fmt.Errorf("no documents to select from")
	}
	best := 0
	for i := 1; i < len(docs); i++ {
		if docLess(&docs[i], &docs[best]) {
			best = i
		}
	}
	return &docs[best], nil
}

func docLess(a, b *SummaryDoc) bool {
	ea, eb := docEnergy(a), docEnergy(b)
	if ea != eb {
		return ea < eb
	}
	return a.MaterialID < b.MaterialID
}

func docEnergy(d *SummaryDoc) float64 {
	if d.EnergyAboveHull == nil {
		return math.Inf(1)
	}
	return *d.EnergyAboveHull
}

// ToStructure converts the document's structure block into a
// layers.Structure.
func (d *SummaryDoc) ToStructure() (*layers.Structure, error) {
	if d.Structure == nil {
		return nil, fmt.Errorf("document %s carries no structure", d.MaterialID)
	}
	lattice := mat.NewDense(3, 3, nil)
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			lattice.Set(i, j, d.Structure.Lattice.Matrix[i][j])
		}
	}
	sites := make([]layers.Site, len(d.Structure.Sites))
	for i, site := range d.Structure.Sites {
		if len(site.Species) == 0 {
			return nil, fmt.Errorf("document %s: site %d has no species", d.MaterialID, i)
		}
		sites[i] = layers.Site{Symbol: site.Species[0].Element, Frac: site.Abc}
	}
	return layers.NewStructure(lattice, sites)
}

// Prototype searches, selects the preferred document and converts it to a
// structure, in one call. It also returns the selected document, so the
// caller can report which material was used.
func (c *Client) Prototype(q Query) (*layers.Structure, *SummaryDoc, error) {
	docs, err := c.Search(q)
	if err != nil {
		return nil, nil, err
	}
	if len(docs) == 0 {
		return nil, nil, fmt.Errorf("no Materials Project entries matched for %s", q.Element)
	}
	doc, err := SelectPreferred(docs)
	if err != nil {
		return nil, nil, err
	}
	s, err := doc.ToStructure()
	if err != nil {
		return nil, nil, err
	}
	return s, doc, nil
}

// SortByPreference orders documents the way SelectPreferred chooses: by
// ascending energy above hull, ties by material id, missing energies last.
func SortByPreference(docs []SummaryDoc) {
	sort.SliceStable(docs, func(i, j int) bool { return docLess(&docs[i], &docs[j]) })
}
