// Package logger provee el logger Zap del servicio con scoping por contexto.
//
// # Decisiones
//
//   - Singleton: una sola instancia global inicializada con Init().
//   - Context scoping: cada request lleva su propio logger con request_id,
//     method y path, inyectado por el middleware de logging.
//   - Entornos: "dev" usa consola con colores, "prod" usa JSON.
//
// # Uso
//
// Inicialización (una vez en main.go):
//
//	logger.Init(logger.Config{
//	    Env:   cfg.App.Env,
//	    Level: cfg.App.LogLevel,
//	})
//	defer logger.Sync()
//
// En controllers/services:
//
//	log := logger.From(ctx).With(logger.Layer("service"), logger.Op("LoginService.Submit"))
//	log.Info("login succeeded", logger.Subject(sub))
package logger
