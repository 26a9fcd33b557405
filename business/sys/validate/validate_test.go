package validate_test

import (
	"strings"
	"testing"

	"github.com/ardanlabs/tnb/business/sys/validate"
)

// Success and failure markers.
const (
	success = "\u2713"
	failed  = "\u2717"
)

type tx struct {
	Recipient string `json:"recipient" validate:"required,account_number"`
	Amount    uint64 `json:"amount" validate:"gt=0"`
	Memo      string `json:"memo" validate:"max=64,memo"`
	Signature string `json:"signature" validate:"omitempty,signature"`
}

func Test_Check(t *testing.T) {
	good := strings.Repeat("ab", 32)

	type table struct {
		name   string
		val    tx
		fields []string
	}

	tt := []table{
		{name: "valid", val: tx{Recipient: good, Amount: 1, Memo: "for lunch"}},
		{name: "recipient", val: tx{Recipient: "xyz", Amount: 1}, fields: []string{"recipient"}},
		{name: "uppercase", val: tx{Recipient: strings.ToUpper(good), Amount: 1}, fields: []string{"recipient"}},
		{name: "uppercase-sig", val: tx{Recipient: good, Amount: 1, Signature: strings.ToUpper(good + good)}, fields: []string{"signature"}},
		{name: "amount", val: tx{Recipient: good}, fields: []string{"amount"}},
		{name: "memo", val: tx{Recipient: good, Amount: 1, Memo: "no!"}, fields: []string{"memo"}},
		{name: "signature", val: tx{Recipient: good, Amount: 1, Signature: good}, fields: []string{"signature"}},
	}

	t.Log("Given the need to validate models.")
	{
		for _, tst := range tt {
			f := func(t *testing.T) {
				err := validate.Check(tst.val)
				if len(tst.fields) == 0 {
					if err != nil {
						t.Fatalf("\t%s\tTest %s:\tShould pass validation: %s", failed, tst.name, err)
					}
					t.Logf("\t%s\tTest %s:\tShould pass validation.", success, tst.name)
					return
				}

				fe := validate.GetFieldErrors(err)
				if fe == nil {
					t.Fatalf("\t%s\tTest %s:\tShould get back field errors: %v", failed, tst.name, err)
				}

				fields := fe.Fields()
				for _, name := range tst.fields {
					if fields[name] == "" {
						t.Fatalf("\t%s\tTest %s:\tShould report field %q: %v", failed, tst.name, name, fields)
					}
				}
				t.Logf("\t%s\tTest %s:\tShould report the invalid fields.", success, tst.name)
			}

			t.Run(tst.name, f)
		}
	}
}

func Test_AccountNumber(t *testing.T) {
	good := strings.Repeat("0f", 32)

	type table struct {
		name  string
		value string
		valid bool
	}

	tt := []table{
		{name: "lowercase", value: good, valid: true},
		{name: "uppercase", value: strings.ToUpper(good)},
		{name: "short", value: good[:62]},
		{name: "not-hex", value: strings.Repeat("zz", 32)},
		{name: "empty", value: ""},
	}

	t.Log("Given the need to validate account numbers taken from a url.")
	{
		for _, tst := range tt {
			f := func(t *testing.T) {
				err := validate.AccountNumber("account_number", tst.value)
				if tst.valid {
					if err != nil {
						t.Fatalf("\t%s\tTest %s:\tShould accept the account number: %s", failed, tst.name, err)
					}
					t.Logf("\t%s\tTest %s:\tShould accept the account number.", success, tst.name)
					return
				}

				fe := validate.GetFieldErrors(err)
				if fe == nil || fe.Fields()["account_number"] == "" {
					t.Fatalf("\t%s\tTest %s:\tShould report the account number field: %v", failed, tst.name, err)
				}
				t.Logf("\t%s\tTest %s:\tShould reject the account number.", success, tst.name)
			}

			t.Run(tst.name, f)
		}
	}
}
