package renderer

import (
	"context"
	"fmt"

	"github.com/johnfercher/maroto/v2"
	"github.com/johnfercher/maroto/v2/pkg/components/col"
	"github.com/johnfercher/maroto/v2/pkg/components/text"
	"github.com/johnfercher/maroto/v2/pkg/config"
	"github.com/johnfercher/maroto/v2/pkg/consts/align"
	"github.com/johnfercher/maroto/v2/pkg/consts/fontstyle"
	"github.com/johnfercher/maroto/v2/pkg/props"
)

type PDFRenderer struct{}

func NewPDF() Renderer {
	return &PDFRenderer{}
}

func (p *PDFRenderer) RenderContract(ctx context.Context, data ContractData) ([]byte, string, error) {
	cfg := config.NewBuilder().
		WithPageNumber(props.PageNumber{
			Pattern: "Page {current} of {total}",
			Place:   props.RightBottom,
		}).
		Build()

	m := maroto.New(cfg)

	m.AddRow(15,
		text.NewCol(12, "Residential Rental Contract", props.Text{
			Size:  20,
			Style: fontstyle.Bold,
			Align: align.Left,
		}),
	)

	m.AddRow(20,
		col.New(6).Add(
			text.New("Contract: "+data.ContractID, props.Text{Top: 0}),
			text.New("Region: "+data.Region, props.Text{Top: 4}),
			text.New("Term: "+data.StartDate+" to "+data.EndDate, props.Text{Top: 8}),
		),
		col.New(6),
	)

	m.AddRow(30,
		col.New(6).Add(
			text.New("Landlord", props.Text{Style: fontstyle.Bold}),
			text.New(data.LandlordName, props.Text{Top: 5}),
		),
		col.New(6).Add(
			text.New("Tenant", props.Text{Style: fontstyle.Bold}),
			text.New(data.TenantName, props.Text{Top: 5}),
		),
	)

	m.AddRow(20,
		col.New(12).Add(
			text.New("Property", props.Text{Style: fontstyle.Bold}),
			text.New(data.Address+", "+data.City, props.Text{Top: 5}),
		),
	)

	m.AddRow(20,
		col.New(6).Add(
			text.New("Monthly rent: "+data.RentAmount, props.Text{Top: 0}),
			text.New("Security deposit: "+data.DepositAmount, props.Text{Top: 5}),
		),
		col.New(6),
	)

	m.AddRow(10,
		text.NewCol(12, "Clauses", props.Text{Style: fontstyle.Bold, Size: 12}),
	)
	for i, clause := range data.Clauses {
		label := fmt.Sprintf("%d. %s (v%d)", i+1, clause.ClauseID, clause.Version)
		if clause.Summary != "" {
			label += ": " + clause.Summary
		}
		m.AddRow(8,
			text.NewCol(12, label, props.Text{Size: 9}),
		)
	}

	doc, err := m.Generate()
	if err != nil {
		return nil, "", fmt.Errorf("render contract pdf: %w", err)
	}

	raw := doc.GetBytes()
	return raw, HashDocument(raw), nil
}
