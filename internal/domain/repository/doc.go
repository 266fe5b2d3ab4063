// Package repository define los contratos de dominio de la capa de interacción.
//
// Estas interfaces representan a los colaboradores externos del flujo de
// login/logout (runtime del identity provider, stores de configuración,
// usuarios, eventos), independientes de su implementación concreta.
//
// Las implementaciones concretas viven en internal/interaction, internal/store,
// internal/providers e internal/events.
//
// Arquitectura:
//
//	┌─────────────────────────────────────────────────────┐
//	│     controllers/account  ->  services/account       │
//	└─────────────────────────────────────────────────────┘
//	                        │
//	                        ▼
//	┌─────────────────────────────────────────────────────┐
//	│        domain/repository (interfaces)               │
//	│  InteractionService, ClientRepository, Users, ...   │
//	└─────────────────────────────────────────────────────┘
//	                        │
//	         ┌──────────────┼──────────────┐
//	         ▼              ▼              ▼
//	┌─────────────┐  ┌─────────────┐  ┌─────────────┐
//	│ interaction │  │   store/    │  │  providers  │
//	│   (cache)   │  │ memory, pg  │  │  registry   │
//	└─────────────┘  └─────────────┘  └─────────────┘
//
// Convenciones:
//   - Context siempre es el primer parámetro
//   - Errores de dominio están en errors.go
package repository
