package httpapi

import (
	"github.com/dmitrijs2005/possync/internal/server/models"
	"github.com/dmitrijs2005/possync/internal/wire"
)

func articleToWire(a models.Article) wire.Article {
	return wire.Article{
		ArticleID:     a.ID,
		Barcode:       a.Barcode,
		Description:   a.Description,
		Category:      a.Category,
		Size:          a.Size,
		Price:         a.Price,
		Brand:         a.Brand,
		IsLot:         a.IsLot,
		LotQuantity:   a.LotQuantity,
		ListNumber:    a.ListNumber,
		DepositorName: a.DepositorName,
		LabelColor:    a.LabelColor,
	}
}

func articleFromWire(a wire.Article) models.Article {
	return models.Article{
		ID:            a.ArticleID,
		Barcode:       a.Barcode,
		Description:   a.Description,
		Category:      a.Category,
		Size:          a.Size,
		Price:         a.Price,
		Brand:         a.Brand,
		IsLot:         a.IsLot,
		LotQuantity:   a.LotQuantity,
		ListNumber:    a.ListNumber,
		DepositorName: a.DepositorName,
		LabelColor:    a.LabelColor,
	}
}

func saleToWire(s models.Sale) wire.Sale {
	return wire.Sale{
		ID:                 s.ID,
		ClientID:           s.ClientID,
		ArticleID:          s.ArticleID,
		Barcode:            s.Barcode,
		ArticleDescription: s.ArticleDescription,
		Price:              s.Price,
		PaymentMethod:      s.PaymentMethod,
		RegisterNumber:     s.RegisterNumber,
		SoldAt:             s.SoldAt.UTC(),
	}
}

func syncItemFromWire(p wire.SyncSalePayload) models.SyncItem {
	return models.SyncItem{
		ClientID:       p.ClientID,
		ArticleID:      p.ArticleID,
		Barcode:        p.Barcode,
		Price:          p.Price,
		PaymentMethod:  p.PaymentMethod,
		RegisterNumber: p.RegisterNumber,
		SoldAt:         p.SoldAt,
	}
}

func summaryToWire(s *models.SyncSummary) wire.SyncResponse {
	resp := wire.SyncResponse{
		Synced:    s.Synced,
		Conflicts: s.Conflicts,
		Errors:    s.Errors,
		Results:   make([]wire.SyncResult, 0, len(s.Results)),
	}
	for _, r := range s.Results {
		resp.Results = append(resp.Results, wire.SyncResult{
			ClientID:     r.ClientID,
			Status:       r.Status,
			ServerSaleID: r.ServerSaleID,
			ErrorMessage: r.ErrorMessage,
		})
	}
	return resp
}
