package services

import "complyguard-lab/internal/domain/models"

// defaultFrameworks returns the embedded framework definitions used when no
// catalog data dir is configured. Domain weights per framework sum to 1.0.
func defaultFrameworks() []*models.Framework {
	return []*models.Framework{soxFramework(), isaeFramework(), gdprFramework(), dtefFramework()}
}

func soxFramework() *models.Framework {
	return &models.Framework{
		ID:          "sox",
		Name:        "Sarbanes-Oxley Act",
		Version:     "2002",
		Description: "Internal control over financial reporting, sections 302/404/906",
		Domains: []models.Domain{
			{
				ID: "itgc", Name: "IT General Controls", RiskLevel: models.RiskLevelHigh, Weight: 0.40,
				Controls: []models.Control{
					{
						ID: "SOX-ITGC-01", Name: "Logical access management",
						Description: "User access is provisioned, reviewed and revoked on an approved, auditable basis",
						Category:    "access_control",
						Keywords:    []string{"access", "provisioning", "authorization", "review", "accounts", "privileged"},
						Weight:      0.4, TargetMaturity: 80,
						Evidence: []string{"access-review-report", "user-provisioning-log"},
					},
					{
						ID: "SOX-ITGC-02", Name: "Change management",
						Description: "Changes to financial systems are approved, tested and deployed with segregation of duties",
						Category:    "change_management",
						Keywords:    []string{"change", "approval", "deployment", "segregation", "testing"},
						Weight:      0.3, TargetMaturity: 80,
						Evidence: []string{"change-tickets", "deployment-approvals"},
					},
					{
						ID: "SOX-ITGC-03", Name: "Operations monitoring",
						Description: "Batch jobs, backups and processing incidents are monitored and resolved",
						Category:    "monitoring",
						Keywords:    []string{"batch", "job", "monitoring", "backup", "incident"},
						Weight:      0.3, TargetMaturity: 60,
						Evidence: []string{"job-failure-log", "backup-report"},
					},
				},
			},
			{
				ID: "reporting", Name: "Financial Reporting Controls", RiskLevel: models.RiskLevelCritical, Weight: 0.35,
				Controls: []models.Control{
					{
						ID: "SOX-404-01", Name: "ICFR effectiveness assessment",
						Description: "Management assesses internal control over financial reporting and tracks deficiencies",
						Category:    "governance",
						Keywords:    []string{"internal", "control", "financial", "reporting", "assessment", "deficiencies"},
						Weight:      0.6, TargetMaturity: 100,
						Evidence: []string{"icfr-assessment", "deficiency-register"},
					},
					{
						ID: "SOX-404-02", Name: "Management review controls",
						Description: "Reconciliations, estimates and journal entries receive documented management review",
						Category:    "monitoring",
						Keywords:    []string{"review", "reconciliation", "estimates", "journal", "entries"},
						Weight:      0.4, TargetMaturity: 80,
						Evidence: []string{"reconciliation-signoff"},
					},
				},
			},
			{
				ID: "certification", Name: "Executive Certification", RiskLevel: models.RiskLevelHigh, Weight: 0.25,
				Controls: []models.Control{
					{
						ID: "SOX-302-01", Name: "Quarterly executive certification",
						Description: "CEO and CFO certify disclosure controls and report accuracy each quarter",
						Category:    "governance",
						Keywords:    []string{"certification", "disclosure", "executive", "quarterly"},
						Weight:      0.5, TargetMaturity: 100,
						Evidence: []string{"signed-certification"},
					},
					{
						ID: "SOX-906-01", Name: "Criminal certification",
						Description: "Executives certify report accuracy subject to criminal penalties",
						Category:    "governance",
						Keywords:    []string{"certification", "criminal", "penalties", "accuracy"},
						Weight:      0.5, TargetMaturity: 100,
						Evidence: []string{"signed-certification"},
					},
				},
			},
		},
	}
}

func isaeFramework() *models.Framework {
	return &models.Framework{
		ID:          "isae3000",
		Name:        "ISAE 3000 Assurance Engagements",
		Version:     "revised",
		Description: "Assurance control categories for non-financial reporting engagements",
		Domains: []models.Domain{
			{
				ID: "control_environment", Name: "Control Environment", RiskLevel: models.RiskLevelMedium, Weight: 0.30,
				Controls: []models.Control{
					{
						ID: "CC1.1", Name: "Integrity and ethical values",
						Description: "The organization demonstrates commitment to integrity and ethical values",
						Category:    "governance",
						Keywords:    []string{"ethics", "integrity", "code", "conduct", "tone"},
						Weight:      0.5, TargetMaturity: 60,
						Evidence: []string{"code-of-conduct", "ethics-training-log"},
					},
					{
						ID: "CC1.2", Name: "Board oversight",
						Description: "The board exercises independent oversight of internal control",
						Category:    "governance",
						Keywords:    []string{"board", "oversight", "independence", "governance"},
						Weight:      0.5, TargetMaturity: 60,
						Evidence: []string{"board-minutes"},
					},
				},
			},
			{
				ID: "logical_access", Name: "Logical Access", RiskLevel: models.RiskLevelHigh, Weight: 0.40,
				Controls: []models.Control{
					{
						ID: "CC6.1", Name: "Logical access security",
						Description: "Access to systems is authenticated, authorized and provisioned against approved credentials",
						Category:    "access_control",
						Keywords:    []string{"access", "authentication", "authorization", "provisioning", "credentials", "privileged"},
						Weight:      0.4, TargetMaturity: 80,
						Evidence: []string{"access-review-report", "mfa-config"},
					},
					{
						ID: "CC6.2", Name: "User registration and deprovisioning",
						Description: "Accounts are registered, reviewed and removed on termination",
						Category:    "access_control",
						Keywords:    []string{"registration", "deprovisioning", "termination", "accounts", "review"},
						Weight:      0.3, TargetMaturity: 80,
						Evidence: []string{"user-provisioning-log", "termination-checklist"},
					},
					{
						ID: "CC6.3", Name: "Privileged access restriction",
						Description: "Privileged and admin access follows least privilege with segregation of duties",
						Category:    "access_control",
						Keywords:    []string{"privileged", "admin", "least", "privilege", "segregation"},
						Weight:      0.3, TargetMaturity: 80,
						Evidence: []string{"privileged-access-register"},
					},
				},
			},
			{
				ID: "change_management", Name: "Change Management", RiskLevel: models.RiskLevelHigh, Weight: 0.30,
				Controls: []models.Control{
					{
						ID: "CC8.1", Name: "Change authorization and testing",
						Description: "Changes are authorized, tested and approved before deployment",
						Category:    "change_management",
						Keywords:    []string{"change", "authorization", "testing", "deployment", "approval"},
						Weight:      1.0, TargetMaturity: 80,
						Evidence: []string{"change-tickets", "test-evidence"},
					},
				},
			},
		},
	}
}

func gdprFramework() *models.Framework {
	return &models.Framework{
		ID:          "gdpr",
		Name:        "General Data Protection Regulation",
		Version:     "2016/679",
		Description: "EU personal data protection articles grouped by obligation area",
		Domains: []models.Domain{
			{
				ID: "governance", Name: "Accountability and Records", RiskLevel: models.RiskLevelMedium, Weight: 0.25,
				Controls: []models.Control{
					{
						ID: "ART5-01", Name: "Accountability principle",
						Description: "Processing follows lawfulness, fairness and transparency principles with demonstrable accountability",
						Category:    "governance",
						Keywords:    []string{"accountability", "lawfulness", "transparency", "principles"},
						Weight:      0.5, TargetMaturity: 60,
						Evidence: []string{"privacy-policy"},
					},
					{
						ID: "ART30-01", Name: "Records of processing activities",
						Description: "A register of processing activities is maintained and kept current",
						Category:    "governance",
						Keywords:    []string{"records", "processing", "activities", "register", "ropa"},
						Weight:      0.5, TargetMaturity: 80,
						Evidence: []string{"processing-register"},
					},
				},
			},
			{
				ID: "security", Name: "Security of Processing", RiskLevel: models.RiskLevelHigh, Weight: 0.35,
				Controls: []models.Control{
					{
						ID: "ART25-01", Name: "Data protection by design",
						Description: "Data protection by design and by default, including minimization and pseudonymization",
						Category:    "data_protection",
						Keywords:    []string{"design", "default", "minimization", "pseudonymization"},
						Weight:      0.4, TargetMaturity: 60,
						Evidence: []string{"dpia-report"},
					},
					{
						ID: "ART32-01", Name: "Security of processing",
						Description: "Technical measures ensure confidentiality, integrity and resilience, with encryption and regular testing",
						Category:    "data_protection",
						Keywords:    []string{"security", "encryption", "confidentiality", "integrity", "resilience", "testing"},
						Weight:      0.6, TargetMaturity: 80,
						Evidence: []string{"encryption-config", "pentest-report"},
					},
				},
			},
			{
				ID: "breach_response", Name: "Breach Response", RiskLevel: models.RiskLevelCritical, Weight: 0.40,
				Controls: []models.Control{
					{
						ID: "ART33-01", Name: "Supervisory authority notification",
						Description: "Personal data breaches are notified to the supervisory authority within 72 hours",
						Category:    "incident_response",
						Keywords:    []string{"breach", "notification", "supervisory", "authority", "hours"},
						Weight:      0.5, TargetMaturity: 100,
						Evidence: []string{"breach-register", "notification-template"},
					},
					{
						ID: "ART34-01", Name: "Data subject communication",
						Description: "High-risk breaches are communicated to affected data subjects without undue delay",
						Category:    "incident_response",
						Keywords:    []string{"breach", "communication", "data", "subjects", "risk"},
						Weight:      0.5, TargetMaturity: 100,
						Evidence: []string{"subject-notice-template"},
					},
				},
			},
		},
	}
}

func dtefFramework() *models.Framework {
	return &models.Framework{
		ID:          "cobit-dtef",
		Name:        "COBIT Digital Trust Ecosystem Framework",
		Version:     "2019",
		Description: "ISACA trust-establishment maturity domains",
		Domains: []models.Domain{
			{
				ID: "edm", Name: "Evaluate, Direct and Monitor", RiskLevel: models.RiskLevelHigh, Weight: 0.30,
				Controls: []models.Control{
					{
						ID: "EDM01", Name: "Governance framework setting",
						Description: "A governance framework sets direction and board oversight for digital trust",
						Category:    "governance",
						Keywords:    []string{"governance", "framework", "direction", "oversight", "board"},
						Weight:      0.5, TargetMaturity: 60,
						Evidence: []string{"governance-charter"},
					},
					{
						ID: "EDM03", Name: "Risk optimization",
						Description: "Risk appetite and tolerance are defined and enterprise risk is optimized",
						Category:    "risk_management",
						Keywords:    []string{"risk", "appetite", "tolerance", "optimization"},
						Weight:      0.5, TargetMaturity: 60,
						Evidence: []string{"risk-register"},
					},
				},
			},
			{
				ID: "apo", Name: "Align, Plan and Organize", RiskLevel: models.RiskLevelMedium, Weight: 0.30,
				Controls: []models.Control{
					{
						ID: "APO12", Name: "Risk management",
						Description: "Risks are continuously assessed, analyzed and mitigated against a maintained register",
						Category:    "risk_management",
						Keywords:    []string{"risk", "assessment", "mitigation", "analysis", "register"},
						Weight:      0.5, TargetMaturity: 80,
						Evidence: []string{"risk-register", "risk-assessment"},
					},
					{
						ID: "APO13", Name: "Security management",
						Description: "An information security management system and policy set are operated",
						Category:    "data_protection",
						Keywords:    []string{"security", "isms", "policy", "management"},
						Weight:      0.5, TargetMaturity: 80,
						Evidence: []string{"isms-policy"},
					},
				},
			},
			{
				ID: "dss", Name: "Deliver, Service and Support", RiskLevel: models.RiskLevelCritical, Weight: 0.40,
				Controls: []models.Control{
					{
						ID: "DSS05", Name: "Security services management",
						Description: "Access protection, privileged credentials and endpoints are monitored and managed",
						Category:    "access_control",
						Keywords:    []string{"access", "protection", "privileged", "monitoring", "credentials", "endpoints"},
						Weight:      0.5, TargetMaturity: 80,
						Evidence: []string{"access-review-report", "endpoint-config"},
					},
					{
						ID: "DSS02", Name: "Incident management",
						Description: "Incidents and breaches are escalated, responded to and resolved through a defined process",
						Category:    "incident_response",
						Keywords:    []string{"incident", "response", "escalation", "resolution", "breach"},
						Weight:      0.5, TargetMaturity: 80,
						Evidence: []string{"incident-runbook", "incident-log"},
					},
				},
			},
		},
	}
}
