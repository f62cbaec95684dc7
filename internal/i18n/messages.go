package i18n

var catalogs = map[string]map[string]string{
	LocaleZH: messagesZH,
	LocaleEN: messagesEN,
	LocaleFR: messagesFR,
}

var messagesZH = map[string]string{
	"message.success": "操作成功",
	"message.created": "创建成功",

	"error.bad_request":       "请求参数错误",
	"error.validation":        "参数校验失败",
	"error.unauthorized":      "未登录或登录已过期",
	"error.forbidden":         "无权访问",
	"error.not_found":         "资源不存在",
	"error.internal":          "服务器内部错误",
	"error.too_many_requests": "请求过于频繁，请稍后再试",
	"error.login_failed":      "账号或密码错误",
	"error.user_id_invalid":   "用户身份无效",

	"error.vendor_not_found":          "商家不存在",
	"error.category_not_found":        "分类不存在",
	"error.offer_not_found":           "优惠不存在",
	"error.offer_inactive":            "优惠已下架",
	"error.booking_not_found":         "预订不存在",
	"error.settlement_not_found":      "结算记录不存在",
	"error.commission_rate_not_found": "佣金费率不存在",

	"error.commission_rate_invalid":        "佣金率必须在 0 到 100 之间",
	"error.commission_rate_not_configured": "该商家与分类未配置佣金率",
	"error.commission_rate_conflict":       "该分类已存在生效中的费率，请重试",
	"error.payment_type_invalid":           "支付类型无效",
	"error.transfer_day_invalid":           "转账处理日无效",

	"error.quantity_invalid":            "数量必须不小于 1",
	"error.max_quantity_exceeded":       "超过单次预订最大数量",
	"error.admission_denied":            "当日名额不足，剩余 %d",
	"error.partial_payment_not_allowed": "该优惠不支持部分支付",
	"error.booking_status_invalid":      "当前预订状态不允许该操作",
	"error.booking_kind_invalid":        "预订类型无效",
	"error.payment_amount_mismatch":     "支付金额不一致",

	"error.settlement_transition_invalid": "结算状态不允许该流转",
	"error.revert_note_required":          "回退到待处理必须填写备注",
	"error.settlement_no_fields":          "未提供需要更新的字段",
	"error.transfer_date_status_invalid":  "待处理结算不能设置转账日期，已处理结算不能清除转账日期",
	"error.settlement_ids_empty":          "请选择结算记录",

	"error.report_range_invalid":  "报表日期区间无效",
	"error.report_format_invalid": "报表格式无效",
	"error.email_invalid":         "邮箱格式无效",

	"error.invalid_password":          "原密码错误",
	"error.password_too_short":        "新密码长度不足",
	"error.role_invalid":              "角色无效",
	"error.settlement_status_invalid": "结算状态无效",
	"error.jwt_secret_missing":        "JWT 密钥未配置",
	"error.auth_header_missing":       "缺少认证信息",
	"error.auth_header_invalid":       "认证信息格式错误",
	"error.token_invalid":             "登录凭证无效",
	"error.token_revoked":             "登录凭证已失效，请重新登录",
	"error.admin_id_invalid":          "管理员身份无效",
	"error.admin_id_type_invalid":     "管理员身份类型错误",
	"error.rate_limit_unavailable":    "限流服务不可用",
	"error.rate_limited":              "请求过于频繁，请 %d 秒后重试",
	"error.login_too_many":            "登录尝试过多，请 %d 秒后重试",

	"message.settlements_processed": "已处理 %d 条结算记录",
	"message.settlements_completed": "已完成 %d 条结算记录",

	"email.settlement_processed.subject": "结算已处理：%d 笔转账",
	"email.settlement_processed.body":    "您好 %s，\n\n以下结算已于 %s 安排转账：\n\n%s\n合计净额：%s\n",
	"email.weekly_report.subject":        "银行转账周报 %s 至 %s",
	"email.weekly_report.body":           "附件为 %s 至 %s 的银行转账报表。\n\n商家数：%d\n结算笔数：%d\n应付净额合计：%s\n佣金合计（含税）：%s\n",
}

var messagesEN = map[string]string{
	"message.success": "Success",
	"message.created": "Created",

	"error.bad_request":       "Invalid request",
	"error.validation":        "Validation failed",
	"error.unauthorized":      "Unauthorized or session expired",
	"error.forbidden":         "Access denied",
	"error.not_found":         "Resource not found",
	"error.internal":          "Internal server error",
	"error.too_many_requests": "Too many requests, please try again later",
	"error.login_failed":      "Invalid username or password",
	"error.user_id_invalid":   "Invalid user identity",

	"error.vendor_not_found":          "Vendor not found",
	"error.category_not_found":        "Category not found",
	"error.offer_not_found":           "Offer not found",
	"error.offer_inactive":            "Offer is not active",
	"error.booking_not_found":         "Booking not found",
	"error.settlement_not_found":      "Settlement not found",
	"error.commission_rate_not_found": "Commission rate not found",

	"error.commission_rate_invalid":        "Commission rate must be between 0 and 100",
	"error.commission_rate_not_configured": "No commission rate configured for this vendor and category",
	"error.commission_rate_conflict":       "An active rate already exists for this category, please retry",
	"error.payment_type_invalid":           "Invalid payment type",
	"error.transfer_day_invalid":           "Invalid transfer processing day",

	"error.quantity_invalid":            "Quantity must be at least 1",
	"error.max_quantity_exceeded":       "Maximum quantity per booking exceeded",
	"error.admission_denied":            "Not enough availability for this day, %d remaining",
	"error.partial_payment_not_allowed": "Partial payment is not allowed for this offer",
	"error.booking_status_invalid":      "Booking status does not allow this operation",
	"error.booking_kind_invalid":        "Invalid booking kind",
	"error.payment_amount_mismatch":     "Paid amount does not match",

	"error.settlement_transition_invalid": "Settlement status does not allow this transition",
	"error.revert_note_required":          "A note is required to revert to pending",
	"error.settlement_no_fields":          "No fields to update",
	"error.transfer_date_status_invalid":  "Pending settlements cannot carry a transfer date, processed ones cannot drop it",
	"error.settlement_ids_empty":          "Settlement ids are required",

	"error.report_range_invalid":  "Invalid report range",
	"error.report_format_invalid": "Invalid report format",
	"error.email_invalid":         "Invalid email",

	"error.invalid_password":          "Current password is incorrect",
	"error.password_too_short":        "New password is too short",
	"error.role_invalid":              "Invalid role",
	"error.settlement_status_invalid": "Invalid settlement status",
	"error.jwt_secret_missing":        "JWT secret is not configured",
	"error.auth_header_missing":       "Missing authorization header",
	"error.auth_header_invalid":       "Malformed authorization header",
	"error.token_invalid":             "Invalid token",
	"error.token_revoked":             "Token revoked, please sign in again",
	"error.admin_id_invalid":          "Invalid admin identity",
	"error.admin_id_type_invalid":     "Invalid admin identity type",
	"error.rate_limit_unavailable":    "Rate limiter unavailable",
	"error.rate_limited":              "Too many requests, retry in %d seconds",
	"error.login_too_many":            "Too many login attempts, retry in %d seconds",

	"message.settlements_processed": "%d settlement(s) processed",
	"message.settlements_completed": "%d settlement(s) completed",

	"email.settlement_processed.subject": "Settlement processed: %d transfer(s)",
	"email.settlement_processed.body":    "Hello %s,\n\nThe following settlements were scheduled for transfer on %s:\n\n%s\nTotal net amount: %s\n",
	"email.weekly_report.subject":        "Weekly banking report %s to %s",
	"email.weekly_report.body":           "Please find attached the banking report from %s to %s.\n\nVendors: %d\nSettlements: %d\nTotal net payable: %s\nTotal commission (incl. VAT): %s\n",
}

var messagesFR = map[string]string{
	"message.success": "Opération réussie",
	"message.created": "Créé avec succès",

	"error.bad_request":       "Requête invalide",
	"error.validation":        "Échec de la validation",
	"error.unauthorized":      "Non authentifié ou session expirée",
	"error.forbidden":         "Accès refusé",
	"error.not_found":         "Ressource introuvable",
	"error.internal":          "Erreur interne du serveur",
	"error.too_many_requests": "Trop de requêtes, veuillez réessayer plus tard",
	"error.login_failed":      "Identifiant ou mot de passe incorrect",
	"error.user_id_invalid":   "Identité utilisateur invalide",

	"error.vendor_not_found":          "Commerçant introuvable",
	"error.category_not_found":        "Catégorie introuvable",
	"error.offer_not_found":           "Offre introuvable",
	"error.offer_inactive":            "Offre inactive",
	"error.booking_not_found":         "Réservation introuvable",
	"error.settlement_not_found":      "Règlement introuvable",
	"error.commission_rate_not_found": "Taux de commission introuvable",

	"error.commission_rate_invalid":        "Le taux de commission doit être compris entre 0 et 100",
	"error.commission_rate_not_configured": "Aucun taux de commission configuré pour ce commerçant et cette catégorie",
	"error.commission_rate_conflict":       "Un taux actif existe déjà pour cette catégorie, veuillez réessayer",
	"error.payment_type_invalid":           "Type de paiement invalide",
	"error.transfer_day_invalid":           "Jour de virement invalide",

	"error.quantity_invalid":            "La quantité doit être au moins 1",
	"error.max_quantity_exceeded":       "Quantité maximale par réservation dépassée",
	"error.admission_denied":            "Disponibilité insuffisante pour ce jour, %d restant(s)",
	"error.partial_payment_not_allowed": "Le paiement partiel n'est pas autorisé pour cette offre",
	"error.booking_status_invalid":      "Le statut de la réservation ne permet pas cette opération",
	"error.booking_kind_invalid":        "Type de réservation invalide",
	"error.payment_amount_mismatch":     "Le montant payé ne correspond pas",

	"error.settlement_transition_invalid": "Le statut du règlement ne permet pas cette transition",
	"error.revert_note_required":          "Une note est obligatoire pour repasser en attente",
	"error.settlement_no_fields":          "Aucun champ à mettre à jour",
	"error.transfer_date_status_invalid":  "Un règlement en attente ne peut pas avoir de date de virement, un règlement traité ne peut pas la perdre",
	"error.settlement_ids_empty":          "Les identifiants de règlement sont requis",

	"error.report_range_invalid":  "Période de rapport invalide",
	"error.report_format_invalid": "Format de rapport invalide",
	"error.email_invalid":         "Adresse e-mail invalide",

	"error.invalid_password":          "Mot de passe actuel incorrect",
	"error.password_too_short":        "Nouveau mot de passe trop court",
	"error.role_invalid":              "Rôle invalide",
	"error.settlement_status_invalid": "Statut de règlement invalide",
	"error.jwt_secret_missing":        "Secret JWT non configuré",
	"error.auth_header_missing":       "En-tête d'authentification manquant",
	"error.auth_header_invalid":       "En-tête d'authentification mal formé",
	"error.token_invalid":             "Jeton invalide",
	"error.token_revoked":             "Jeton révoqué, veuillez vous reconnecter",
	"error.admin_id_invalid":          "Identité administrateur invalide",
	"error.admin_id_type_invalid":     "Type d'identité administrateur invalide",
	"error.rate_limit_unavailable":    "Limiteur de débit indisponible",
	"error.rate_limited":              "Trop de requêtes, réessayez dans %d secondes",
	"error.login_too_many":            "Trop de tentatives de connexion, réessayez dans %d secondes",

	"message.settlements_processed": "%d règlement(s) traité(s)",
	"message.settlements_completed": "%d règlement(s) terminé(s)",

	"email.settlement_processed.subject": "Règlement traité : %d virement(s)",
	"email.settlement_processed.body":    "Bonjour %s,\n\nLes règlements suivants ont été programmés pour virement le %s :\n\n%s\nMontant net total : %s\n",
	"email.weekly_report.subject":        "Rapport bancaire hebdomadaire du %s au %s",
	"email.weekly_report.body":           "Veuillez trouver ci-joint le rapport bancaire du %s au %s.\n\nCommerçants : %d\nRèglements : %d\nTotal net à verser : %s\nTotal commissions (TTC) : %s\n",
}
