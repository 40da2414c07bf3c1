// Dealwatch - Deal Follow-up Automation for Registration Workflows
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/dealwatch

/*
Package config loads and validates Dealwatch configuration.

# Configuration Sources

Values are layered with koanf, last source wins:
  - Built-in defaults (defaultConfig)
  - Optional YAML file: CONFIG_PATH, else config.yaml or /etc/dealwatch/config.yaml
  - Environment variables through an explicit name mapping

Environment names predating this service are preserved, for example:

	PIPEDRIVE_TOKEN              pipedrive.token (required)
	PIPEDRIVE_API                pipedrive.base_url
	CAMPO_STATUS_REGISTRO        fields.status (required)
	CAMPO_DATA_INICIO_REGISTRO   fields.start_date (required)
	CAMPO_DATA_TERMINO_CONTRATOS fields.contracts_end (required)
	CAMPO_DATA_TERMINO_ITBI      fields.itbi_end (required)
	CAMPO_DATA_VENCIMENTO        fields.prenotation_due
	OPTION_ID_FINALIZADO         status.finalized_id
	OPTION_ID_INICIAR            status.starting_id
	TIPO_ATIVIDADE               activity.type
	HORARIO_PADRAO               activity.due_time

Unmapped variables are ignored.

# Usage

	cfg, err := config.Load()
	if err != nil {
	    log.Fatal().Err(err).Msg("Failed to load configuration")
	}
*/
package config
