package sankhya

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/spf13/cast"
	"go.uber.org/zap"
)

// Nota is a chamado header already mapped to ERP codes by the web tier.
// DataEmissao arrives pre-formatted as dd/mm/yyyy.
type Nota struct {
	EmpresaCodigo        string `json:"empresa_codigo" validate:"required"`
	ParceiroCodigo       string `json:"parceiro_codigo" validate:"required"`
	NaturezaCodigo       string `json:"natureza_codigo" validate:"required"`
	ProjetoCodigo        string `json:"projeto_codigo" validate:"required"`
	TipoNegociacaoCodigo string `json:"tipo_negociacao_codigo" validate:"required"`
	TipoOperacaoCodigo   string `json:"tipo_operacao_codigo" validate:"required"`
	DataEmissao          string `json:"data_emissao" validate:"required"`
	Observacao           string `json:"observacao"`
	ObsInterna           string `json:"obs_interna"`
}

// NotaItem is one purchase line of a chamado.
type NotaItem struct {
	Codigo                string  `json:"codigo" validate:"required"`
	Quantidade            float64 `json:"quantidade" validate:"gt=0"`
	Codvol                string  `json:"codvol"`
	Vlrunit               float64 `json:"vlrunit" validate:"gte=0"`
	CentroResultadoCodigo string  `json:"centro_resultado_codigo"`
	ObservacaoItem        string  `json:"observacao_item"`
}

// ERP-mandated header constants for notas created by this integration.
const (
	movementTypeOrder = "O"
	integrationFlag   = 1
	releaseFlag       = "S"
	headerCostCenter  = 1010109

	releaseTimeLayout = "02/01/2006 15:04:05"
)

// wire shapes for CACSP.incluirNota
type notaBody struct {
	Nota notaEnvelope `json:"nota"`
}

type notaEnvelope struct {
	Cabecalho notaHeader `json:"cabecalho"`
	Itens     notaItens  `json:"itens"`
}

type notaItens struct {
	InformarPreco string     `json:"INFORMARPRECO"`
	Item          []notaItem `json:"item"`
}

type notaHeader struct {
	Nunota      struct{} `json:"NUNOTA"`
	CodCenCus   wrapped  `json:"CODCENCUS"`
	CodEmp      wrapped  `json:"CODEMP"`
	CodParc     wrapped  `json:"CODPARC"`
	DtNeg       wrapped  `json:"DTNEG"`
	CodTipOper  wrapped  `json:"CODTIPOPER"`
	CodTipVenda wrapped  `json:"CODTIPVENDA"`
	CodNat      wrapped  `json:"CODNAT"`
	CodProj     wrapped  `json:"CODPROJ"`
	Observacao  wrapped  `json:"OBSERVACAO"`
	ObsInterna  wrapped  `json:"AD_OBSERVACAOINT"`
	TipMov      wrapped  `json:"TIPMOV"`
	Integracao  wrapped  `json:"AD_INTEGRACAO"`
	FatLib      wrapped  `json:"AD_FATLIB"`
	DtLib       wrapped  `json:"AD_DTLIB"`
}

type notaItem struct {
	Nunota     struct{} `json:"NUNOTA"`
	CodProd    wrapped  `json:"CODPROD"`
	QtdNeg     wrapped  `json:"QTDNEG"`
	CodVol     wrapped  `json:"CODVOL"`
	VlrUnit    wrapped  `json:"VLRUNIT"`
	PercDesc   wrapped  `json:"PERCDESC"`
	CodCenCus  wrapped  `json:"AD_CODCENCUS"`
	Observacao wrapped  `json:"OBSERVACAO"`
}

type chaveEnvelope struct {
	Chave struct {
		Nunota wrapped `json:"NUNOTA"`
	} `json:"chave"`
}

// SubmitNota creates a purchase nota from the chamado header and its items and
// returns the document number Sankhya generated. The release timestamp is the
// submission moment, not the chamado's creation time.
func (c *Client) SubmitNota(ctx context.Context, nota Nota, items []NotaItem) (string, error) {
	if len(items) == 0 {
		return "", ErrNoItems
	}

	itemPayloads := make([]notaItem, 0, len(items))
	for _, item := range items {
		itemPayloads = append(itemPayloads, notaItem{
			CodProd:    wrapped{Value: item.Codigo},
			QtdNeg:     wrapped{Value: cast.ToString(item.Quantidade)},
			CodVol:     wrapped{Value: item.Codvol},
			VlrUnit:    wrapped{Value: fmt.Sprintf("%.2f", item.Vlrunit)},
			PercDesc:   wrapped{Value: "0"},
			CodCenCus:  wrapped{Value: item.CentroResultadoCodigo},
			Observacao: wrapped{Value: item.ObservacaoItem},
		})
	}

	body := notaBody{
		Nota: notaEnvelope{
			Cabecalho: notaHeader{
				CodCenCus:   wrapped{Value: headerCostCenter},
				CodEmp:      wrapped{Value: nota.EmpresaCodigo},
				CodParc:     wrapped{Value: nota.ParceiroCodigo},
				DtNeg:       wrapped{Value: nota.DataEmissao},
				CodTipOper:  wrapped{Value: nota.TipoOperacaoCodigo},
				CodTipVenda: wrapped{Value: nota.TipoNegociacaoCodigo},
				CodNat:      wrapped{Value: nota.NaturezaCodigo},
				CodProj:     wrapped{Value: nota.ProjetoCodigo},
				Observacao:  wrapped{Value: nota.Observacao},
				ObsInterna:  wrapped{Value: nota.ObsInterna},
				TipMov:      wrapped{Value: movementTypeOrder},
				Integracao:  wrapped{Value: integrationFlag},
				FatLib:      wrapped{Value: releaseFlag},
				DtLib:       wrapped{Value: c.now().Format(releaseTimeLayout)},
			},
			Itens: notaItens{
				InformarPreco: "True",
				Item:          itemPayloads,
			},
		},
	}

	responseBody, err := c.callService(ctx, gatewayMGECom, serviceIncluirNota, body)
	if err != nil {
		return "", err
	}

	var env chaveEnvelope
	if err := json.Unmarshal(responseBody, &env); err != nil {
		return "", fmt.Errorf(errWrappedFmt, ErrDecode, err.Error())
	}

	nunota := cast.ToString(env.Chave.Nunota.Value)
	if nunota == "" {
		l := c.getLogger(ctx)
		if l == nil {
			l = c.logger
		}
		l.Error("incluirNota succeeded without a NUNOTA in the response",
			zap.String("empresa", nota.EmpresaCodigo), zap.String("parceiro", nota.ParceiroCodigo))
		return "", ErrMissingDocumentID
	}
	return nunota, nil
}
