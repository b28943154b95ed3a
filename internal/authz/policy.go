package authz

// Status predicates. Statuses outside the known enumeration satisfy none of
// the positive predicates, so malformed snapshots fail closed.

// IsEditableStatus reports whether an agreement may still be edited. Only
// drafts are editable; once any party has been asked to act the content is
// frozen.
func IsEditableStatus(status AgreementStatus) bool {
	return status == StatusRascunho
}

// IsDeletableStatus mirrors IsEditableStatus: deletion and edit share the
// same gate because both erase content other parties may have acted on.
func IsDeletableStatus(status AgreementStatus) bool {
	return status == StatusRascunho
}

// IsSignableStatus reports whether the agreement is awaiting signatures.
func IsSignableStatus(status AgreementStatus) bool {
	return status == StatusPendenteAssinatura
}

// IsTerminalStatus reports whether the lifecycle has ended.
func IsTerminalStatus(status AgreementStatus) bool {
	switch status {
	case StatusRejeitado, StatusCancelado, StatusEncerrado:
		return true
	default:
		return false
	}
}

// IsImmutableStatus reports whether the agreement can no longer be mutated:
// terminal states plus active/approved ones.
func IsImmutableStatus(status AgreementStatus) bool {
	if IsTerminalStatus(status) {
		return true
	}
	return status == StatusAtivo || status == StatusAprovado
}

// HasBeenSigned reports whether any signature slot is populated.
func HasBeenSigned(snap AgreementSnapshot) bool {
	for _, t := range SignatureTypes() {
		if snap.Signature(t) != "" {
			return true
		}
	}
	return false
}

// belongsTo decides ownership scoping: whether the actor's affiliation
// covers the agreement. Platform roles bypass scoping entirely.
func belongsTo(ctx UserContext, snap AgreementSnapshot) bool {
	if IsPlatformRole(ctx.Role) {
		return true
	}
	switch ctx.Role {
	case RoleInquilino:
		return ctx.UserID != "" && ctx.UserID == snap.TenantID
	case RoleProprietario, RoleIndependentOwner:
		return ctx.UserID != "" && ctx.UserID == snap.OwnerID
	case RoleBroker:
		return ctx.BrokerID != "" && ctx.BrokerID == snap.BrokerID
	default:
		// Agency staff and auxiliary roles are scoped to their agency.
		return ctx.AgencyID != "" && ctx.AgencyID == snap.AgencyID
	}
}

// signerRoleFor reports whether the actor's role and affiliation entitle it
// to fill the given signature slot on this agreement.
func signerRoleFor(ctx UserContext, snap AgreementSnapshot, t SignatureType) bool {
	switch t {
	case SignatureTenant:
		return ctx.Role == RoleInquilino && ctx.UserID == snap.TenantID
	case SignatureOwner:
		if ctx.Role != RoleProprietario && ctx.Role != RoleIndependentOwner {
			return false
		}
		return ctx.UserID == snap.OwnerID
	case SignatureAgency:
		if ctx.Role != RoleAgencyAdmin && ctx.Role != RoleAgencyManager {
			return false
		}
		return ctx.AgencyID != "" && ctx.AgencyID == snap.AgencyID
	case SignatureBroker:
		return ctx.Role == RoleBroker && ctx.BrokerID != "" && ctx.BrokerID == snap.BrokerID
	case SignatureWitness:
		if ctx.Role != RoleRepresentative && ctx.Role != RoleBuildingManager {
			return false
		}
		return belongsTo(ctx, snap)
	default:
		return false
	}
}

// CanView reports whether the actor may view the agreement. Static module
// capability plus ownership scoping; platform roles see everything.
func (a *Authorizer) CanView(ctx UserContext, snap AgreementSnapshot) bool {
	if !ctx.Authenticated() {
		return false
	}
	if !ActionAllowed(ctx.Role, ModuleAgreements, ActionView).Allowed {
		return false
	}
	return belongsTo(ctx, snap)
}

// CanEdit reports whether the actor may edit the agreement. Only drafts are
// editable and ownership scoping applies.
func (a *Authorizer) CanEdit(ctx UserContext, snap AgreementSnapshot) bool {
	if !ctx.Authenticated() {
		return false
	}
	if !ActionAllowed(ctx.Role, ModuleAgreements, ActionEdit).Allowed {
		return false
	}
	return IsEditableStatus(snap.Status) && belongsTo(ctx, snap)
}

// CanDelete reports whether the actor may delete the agreement.
func (a *Authorizer) CanDelete(ctx UserContext, snap AgreementSnapshot) bool {
	if !ctx.Authenticated() {
		return false
	}
	if !ActionAllowed(ctx.Role, ModuleAgreements, ActionDelete).Allowed {
		return false
	}
	return IsDeletableStatus(snap.Status) && belongsTo(ctx, snap)
}

// CanSign reports whether the actor may fill the given signature slot: the
// agreement must be awaiting signatures, the actor's role must be entitled
// to the slot, and the slot must not already be signed.
func (a *Authorizer) CanSign(ctx UserContext, snap AgreementSnapshot, t SignatureType) bool {
	if !ctx.Authenticated() {
		return false
	}
	if !ActionAllowed(ctx.Role, ModuleAgreements, ActionSign).Allowed {
		return false
	}
	if !IsSignableStatus(snap.Status) {
		return false
	}
	if !signerRoleFor(ctx, snap, t) {
		return false
	}
	return snap.Signature(t) == ""
}

// CanApprove reports whether the actor may approve the agreement. Approval
// is reserved to agency-manager rank and above; with the strict policy the
// actor must outrank the agency manager.
func (a *Authorizer) CanApprove(ctx UserContext, snap AgreementSnapshot) bool {
	if !ctx.Authenticated() {
		return false
	}
	if !ActionAllowed(ctx.Role, ModuleAgreements, ActionApprove).Allowed {
		return false
	}
	if snap.Status != StatusPendenteAssinatura {
		return false
	}
	if !a.meetsApprovalRank(ctx.Role) {
		return false
	}
	return belongsTo(ctx, snap)
}

// CanReject mirrors CanApprove: the same authority that approves may reject.
func (a *Authorizer) CanReject(ctx UserContext, snap AgreementSnapshot) bool {
	if !ctx.Authenticated() {
		return false
	}
	if !ActionAllowed(ctx.Role, ModuleAgreements, ActionReject).Allowed {
		return false
	}
	if snap.Status != StatusPendenteAssinatura {
		return false
	}
	if !a.meetsApprovalRank(ctx.Role) {
		return false
	}
	return belongsTo(ctx, snap)
}

// CanCancel reports whether the actor may cancel the agreement. Anything
// not already terminal can be cancelled by an actor with the delete
// capability and matching scope.
func (a *Authorizer) CanCancel(ctx UserContext, snap AgreementSnapshot) bool {
	if !ctx.Authenticated() {
		return false
	}
	if !ActionAllowed(ctx.Role, ModuleAgreements, ActionCancel).Allowed {
		return false
	}
	return !IsTerminalStatus(snap.Status) && belongsTo(ctx, snap)
}

// CanSendForSignature reports whether the actor may dispatch the agreement
// for signing. Only drafts may be dispatched, which also prevents
// re-sending an agreement already out for signature.
func (a *Authorizer) CanSendForSignature(ctx UserContext, snap AgreementSnapshot) bool {
	if !ctx.Authenticated() {
		return false
	}
	if !ActionAllowed(ctx.Role, ModuleAgreements, ActionSendForSignature).Allowed {
		return false
	}
	return snap.Status == StatusRascunho && belongsTo(ctx, snap)
}

// SignableSlots returns the signature slots the actor could fill on this
// agreement right now, in canonical slot order.
func (a *Authorizer) SignableSlots(ctx UserContext, snap AgreementSnapshot) []SignatureType {
	var slots []SignatureType
	for _, t := range SignatureTypes() {
		if a.CanSign(ctx, snap, t) {
			slots = append(slots, t)
		}
	}
	return slots
}

// AvailableActions evaluates every composite check and returns the actions
// that pass, in a fixed canonical order so UI action menus render
// deterministically.
func (a *Authorizer) AvailableActions(ctx UserContext, snap AgreementSnapshot) []Action {
	var actions []Action
	if a.CanView(ctx, snap) {
		actions = append(actions, ActionView)
	}
	if a.CanEdit(ctx, snap) {
		actions = append(actions, ActionEdit)
	}
	if a.CanDelete(ctx, snap) {
		actions = append(actions, ActionDelete)
	}
	if len(a.SignableSlots(ctx, snap)) > 0 {
		actions = append(actions, ActionSign)
	}
	if a.CanApprove(ctx, snap) {
		actions = append(actions, ActionApprove)
	}
	if a.CanReject(ctx, snap) {
		actions = append(actions, ActionReject)
	}
	if a.CanCancel(ctx, snap) {
		actions = append(actions, ActionCancel)
	}
	if a.CanSendForSignature(ctx, snap) {
		actions = append(actions, ActionSendForSignature)
	}
	return actions
}

// PermissionsSummary is the role-level, resource-independent view used for
// coarse UI gating before any agreement is loaded.
type PermissionsSummary struct {
	CanView             bool `json:"canView"`
	CanCreate           bool `json:"canCreate"`
	CanEdit             bool `json:"canEdit"`
	CanDelete           bool `json:"canDelete"`
	CanSign             bool `json:"canSign"`
	CanApprove          bool `json:"canApprove"`
	CanReject           bool `json:"canReject"`
	CanCancel           bool `json:"canCancel"`
	CanSendForSignature bool `json:"canSendForSignature"`
	IsPlatformRole      bool `json:"isPlatformRole"`
}

// Summary computes the role-level permission summary for the agreements
// module. An unauthenticated context yields the zero summary.
func (a *Authorizer) Summary(ctx UserContext) PermissionsSummary {
	if !ctx.Authenticated() {
		return PermissionsSummary{}
	}
	allowed := func(action Action) bool {
		return ActionAllowed(ctx.Role, ModuleAgreements, action).Allowed
	}
	return PermissionsSummary{
		CanView:             allowed(ActionView),
		CanCreate:           allowed(ActionCreate),
		CanEdit:             allowed(ActionEdit),
		CanDelete:           allowed(ActionDelete),
		CanSign:             allowed(ActionSign),
		CanApprove:          allowed(ActionApprove) && a.meetsApprovalRank(ctx.Role),
		CanReject:           allowed(ActionReject) && a.meetsApprovalRank(ctx.Role),
		CanCancel:           allowed(ActionCancel),
		CanSendForSignature: allowed(ActionSendForSignature),
		IsPlatformRole:      IsPlatformRole(ctx.Role),
	}
}

// meetsApprovalRank applies the configured approval rank policy.
func (a *Authorizer) meetsApprovalRank(role Role) bool {
	rank, ok := Rank(role)
	if !ok {
		return false
	}
	if a.strictApproval {
		return rank > RankAgencyManager
	}
	return rank >= RankAgencyManager
}
