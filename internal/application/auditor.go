package application

import (
	"link_auditor/internal/adaptors"
	"link_auditor/internal/application/config"
	"link_auditor/internal/service"

	log "github.com/sirupsen/logrus"
)

// NewAuditor wires the fetch client, classifier, scheduler and cache described
// by cfg into an Auditor.
func NewAuditor(cfg config.AuditConfig, log *log.Logger) *service.Auditor {
	client := adaptors.NewWebClient(adaptors.WebClientConfig{
		Timeout:      cfg.Timeout,
		MaxRetries:   cfg.MaxRetries,
		BackoffBase:  cfg.BackoffBase,
		MaxRedirects: cfg.MaxRedirects,
		MaxBodyBytes: cfg.MaxBodyBytes,
		UserAgent:    cfg.UserAgent,
	}, log)

	classifierCfg := service.DefaultClassifierConfig()
	classifierCfg.HomepageBounce = cfg.HomepageBounce
	classifierCfg.BodyPhrases = cfg.BodyPhrases

	scheduler := service.NewScheduler(client, service.NewClassifier(classifierCfg), service.SchedulerConfig{
		ConcurrencyLimit:  cfg.ConcurrencyLimit,
		MaxJitter:         cfg.MaxJitter,
		InterRequestDelay: cfg.InterRequestDelay,
	}, log)

	return service.NewAuditor(scheduler, service.NewResultCache(cfg.CacheTTL, nil), cfg.BatchTimeout, log)
}
