package bankgrp

import (
	"time"

	"github.com/ardanlabs/tnb/business/core/ledger/db"
	"github.com/ardanlabs/tnb/business/sys/validate"
	"github.com/ardanlabs/tnb/foundation/tnb/models"
	"github.com/ardanlabs/tnb/foundation/tnb/nodes"
)

type appTransaction struct {
	Amount    uint64          `json:"amount" validate:"gt=0,lte=9223372036854775807"`
	Fee       models.NodeType `json:"fee" validate:"omitempty,oneof=BANK PRIMARY_VALIDATOR"`
	Memo      string          `json:"memo" validate:"max=64,memo"`
	Recipient string          `json:"recipient" validate:"required,account_number"`
}

type appCoinTransfer struct {
	BalanceKey string           `json:"balance_key" validate:"required"`
	Txs        []appTransaction `json:"txs" validate:"required,min=1,dive"`
}

type appBlock struct {
	AccountNumber string          `json:"account_number" validate:"required,account_number"`
	Message       appCoinTransfer `json:"message"`
	Signature     string          `json:"signature" validate:"required,signature"`
}

// Validate checks the data in the model is considered clean.
func (ab appBlock) Validate() error {
	return validate.Check(ab)
}

func toBlockMessage(ab appBlock) models.BlockMessage {
	txs := make([]models.Transaction, len(ab.Message.Txs))
	for i, tx := range ab.Message.Txs {
		txs[i] = models.Transaction{
			Amount:    tx.Amount,
			Fee:       tx.Fee,
			Memo:      tx.Memo,
			Recipient: tx.Recipient,
		}
	}

	return models.BlockMessage{
		AccountNumber: ab.AccountNumber,
		Message: models.CoinTransfer{
			BalanceKey: ab.Message.BalanceKey,
			Txs:        txs,
		},
		Signature: ab.Signature,
	}
}

func toBlockResponse(blk db.Block) nodes.BlockResponse {
	return nodes.BlockResponse{
		ID:           blk.ID,
		CreatedDate:  blk.CreatedDate.Format(time.RFC3339Nano),
		ModifiedDate: blk.ModifiedDate.Format(time.RFC3339Nano),
		BalanceKey:   blk.BalanceKey,
		Sender:       blk.Sender,
		Signature:    blk.Signature,
	}
}

func toTransactionResponse(rec db.TransactionRecord) nodes.TransactionResponse {
	return nodes.TransactionResponse{
		ID:        rec.ID,
		Block:     toBlockResponse(rec.Block),
		Amount:    rec.Amount,
		Recipient: rec.Recipient,
		Fee:       models.NodeType(rec.Fee),
		Memo:      rec.Memo,
	}
}

type appTrust struct {
	AccountNumber string `json:"account_number"`
	Trust         int32  `json:"trust"`
}
