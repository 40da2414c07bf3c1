// Dealwatch - Deal Follow-up Automation for Registration Workflows
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/dealwatch

package escalation

import (
	"github.com/tomtom215/dealwatch/internal/priority"
)

// Milestone is one reminder of the escalation table. Title is the
// idempotency key: a deal never gets two activities with the same title.
type Milestone struct {
	Offset int
	Title  string
	Note   string
	Tier   priority.Tier
}

// Milestones is the escalation table, sorted by Offset.
var Milestones = []Milestone{
	{
		Offset: 1,
		Title:  "REGISTRO - 1 DIA - INICIAR",
		Note: "- Conferir se todos os documentos para protocolo estão na pasta \"Documentos Registro\"; se faltar, providenciar\n" +
			"- Validar consulta ao Mapa de Circunscrição para protocolar no cartório correto\n" +
			"- Realizar/cobrar a abertura do protocolo se tudo estiver pronto",
		Tier: priority.High,
	},
	{
		Offset: 3,
		Title:  "REGISTRO - 3 DIAS - VERIFICAR PROTOCOLO",
		Note: "- Checar se o protocolo foi aberto e lançar em \"Nº Protocolo em Andamento\"\n" +
			"- Se não houver protocolo: confirmar pendências/documentos faltantes e sinalizar com urgência\n" +
			"- Se em andamento: verificar status e data de vencimento da prenotação para preencher no Pipe",
		Tier: priority.Medium,
	},
	{
		Offset: 5,
		Title:  "REGISTRO - 5 DIAS - VERIFICAR PROTOCOLO",
		Note: "- Acompanhar junto ao cartório se o protocolo segue em análise\n" +
			"- Se ainda não iniciado: providenciar abertura com urgência",
		Tier: priority.Medium,
	},
	{
		Offset: 7,
		Title:  "REGISTRO - 7 DIAS - STATUS DO ANDAMENTO",
		Note: "- Acompanhar junto ao cartório se o protocolo segue em análise\n" +
			"- Se ainda não iniciado: providenciar abertura com urgência",
		Tier: priority.Medium,
	},
	{
		Offset: 10,
		Title:  "REGISTRO - 10 DIAS - ALERTA: VERIFICAR DEVOLUTIVA",
		Note: "- Confirmar se houve emissão de Nota Devolutiva\n" +
			"- Se sim: criar atividade \"(¡¡N/D) Nota Devolutiva)\" conforme vencimento da prenotação; salvar nota na pasta \"Notas Devolutivas\"; destrinchar e enviar ao cliente com mensagens padrão\n" +
			"- Se não: ligar no cartório e cobrar o andamento do protocolo",
		Tier: priority.High,
	},
	{
		Offset: 12,
		Title:  "REGISTRO - 12 DIAS - ALERTA: VERIFICAR PAGAMENTOS",
		Note: "- Confirmar liberação de custos cartorários e enviar ao cliente\n" +
			"- Se estiver em análise após devolutiva: verificar status\n" +
			"- Se atrasado (1ª análise ainda): cobrar retorno e abrir ouvidoria no TJ do estado",
		Tier: priority.Medium,
	},
	{
		Offset: 14,
		Title:  "REGISTRO - 14 DIAS - ALERTA: ACOMPANHAR CARTÓRIO",
		Note: "- Sem retorno do cartório: reforçar contato e abrir nova ouvidoria no TJ se a anterior estiver finalizada\n" +
			"- Se houver devolutivas pendentes: comunicar responsáveis e cliente com resumo e pendências\n" +
			"- Se devolutiva respondida: acompanhar andamento",
		Tier: priority.High,
	},
	{
		Offset: 16,
		Title:  "REGISTRO - 16 DIAS - ALERTA: PRAZO PRÓXIMO DE VENCIMENTO",
		Note: "- Verificar se emolumentos foram liberados e pagos\n" +
			"- Confirmar com o cartório se o pagamento foi identificado\n" +
			"- Ligar e confirmar o status exato do protocolo",
		Tier: priority.High,
	},
	{
		Offset: 18,
		Title:  "REGISTRO - 18 DIAS - SINAL DE RISCO: PRAZO ESTOURANDO",
		Note: "- Verificar prazo de vencimento da prenotação e status do protocolo\n" +
			"- Resolver pendências em aberto imediatamente\n" +
			"- Cobrar efetivamente o cartório\n" +
			"- Verificar possibilidade de dilação da prenotação",
		Tier: priority.High,
	},
	{
		Offset: 20,
		Title:  "REGISTRO - 20 DIAS - ALERTA DE DESCUMPRIMENTO",
		Note: "- Se não concluiu: avaliar como crítico e verificar prorrogação/novo protocolo\n" +
			"- Avisar cliente sobre descumprimento do prazo\n" +
			"- Acompanhar até finalização se em etapa final\n" +
			"- Garantir \"Data Término: Registro\" e envio de matrícula atualizada",
		Tier: priority.High,
	},
	{
		Offset: 25,
		Title:  "REGISTRO - 25 DIAS - DESCUMPRIMENTO TOTAL DE PRAZO",
		Note: "- Verificar se a prenotação foi cancelada por decurso de prazo\n" +
			"- Checar devolutivas não respondidas\n" +
			"- Se houver: solicitar documentos e abrir novo protocolo\n" +
			"- Comunicar cliente sobre o descumprimento",
		Tier: priority.High,
	},
	{
		Offset: 30,
		Title:  "REGISTRO - 30 DIAS - PRAZO FINAL / CRÍTICO",
		Note: "- Se não concluído: confirmar cancelamento definitivo da prenotação\n" +
			"- Cobrança formal junto ao cartório; abrir nova ouvidoria no TJ se cabível\n" +
			"- Comunicar cliente com novo plano de ação",
		Tier: priority.High,
	},
}

// Trigger names.
const (
	TriggerPrenotationDue = "VENCIMENTO_PRENOTACAO"
	TriggerObjection      = "NOTA_DEVOLUTIVA"
)

// Trigger is a one-shot reminder fired by a field change. Its due date is
// supplied when it fires.
type Trigger struct {
	Name  string
	Title string
	Note  string
	Tier  priority.Tier
}

// Triggers lists the conditional reminders by name.
var Triggers = map[string]Trigger{
	TriggerPrenotationDue: {
		Name:  TriggerPrenotationDue,
		Title: "REGISTRO - VENCIMENTO DA PRENOTAÇÃO",
		Note: "- Solicitar dilação de prazo no cartório se não finalizado\n" +
			"- Verificar situação do protocolo\n" +
			"- Informar o cliente caso haja vencimento",
		Tier: priority.High,
	},
	TriggerObjection: {
		Name:  TriggerObjection,
		Title: "REGISTRO - NOTA DEVOLUTIVA",
		Note: "- Salvar a nota na pasta \"Notas Devolutivas\"\n" +
			"- Destrinchar as exigências e enviar ao cliente com mensagens padrão\n" +
			"- Acompanhar o cumprimento até o reingresso do protocolo",
		Tier: priority.High,
	},
}
