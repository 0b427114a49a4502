package handler

import (
	"venue_crm_backend/internal/contacts/repository"
	"venue_crm_backend/internal/contacts/transport"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

func repositoryListParams(c *gin.Context, limit, offset int) repository.ListContactsParams {
	return repository.ListContactsParams{
		Status: c.Query("status"),
		Heat:   c.Query("heat"),
		Search: c.Query("search"),
		Limit:  limit,
		Offset: offset,
	}
}

func repositoryInteractionParams(contactID, tenantID uuid.UUID, req transport.CreateInteractionRequest) repository.CreateInteractionParams {
	return repository.CreateInteractionParams{
		ContactID:      contactID,
		OrganizationID: tenantID,
		Type:           req.Type,
		Platform:       req.Platform,
		Metadata:       req.Metadata,
	}
}
