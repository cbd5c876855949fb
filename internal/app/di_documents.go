package app

import (
	"fmt"

	documentHTTP "github.com/allisson/cedms/internal/document/http"
	documentRepository "github.com/allisson/cedms/internal/document/repository"
	documentUseCase "github.com/allisson/cedms/internal/document/usecase"
)

// DocumentRepository returns the document metadata repository.
func (c *Container) DocumentRepository() (*documentRepository.DocumentRepository, error) {
	return resolve(c, &c.documentRepoInit, "documentRepo", &c.documentRepo,
		func() (*documentRepository.DocumentRepository, error) {
			store, err := c.Store()
			if err != nil {
				return nil, fmt.Errorf("failed to get store for document repository: %w", err)
			}
			return documentRepository.NewDocumentRepository(store), nil
		})
}

// DocumentUseCase returns the document lifecycle wrapped with business metrics.
func (c *Container) DocumentUseCase() (documentUseCase.DocumentUseCase, error) {
	return resolve(c, &c.documentUseCaseInit, "documentUseCase", &c.documentUseCase, c.initDocumentUseCase)
}

// DocumentHandler returns the document HTTP handler.
func (c *Container) DocumentHandler() (*documentHTTP.DocumentHandler, error) {
	return resolve(c, &c.documentHandlerInit, "documentHandler", &c.documentHandler,
		func() (*documentHTTP.DocumentHandler, error) {
			useCase, err := c.DocumentUseCase()
			if err != nil {
				return nil, fmt.Errorf("failed to get document use case for handler: %w", err)
			}
			return documentHTTP.NewDocumentHandler(useCase, c.config.MaxUploadSizeBytes, c.Logger()), nil
		})
}

func (c *Container) initDocumentUseCase() (documentUseCase.DocumentUseCase, error) {
	repo, err := c.DocumentRepository()
	if err != nil {
		return nil, err
	}
	blobs, err := c.BlobStore()
	if err != nil {
		return nil, fmt.Errorf("failed to get blob store for document use case: %w", err)
	}
	cipher, err := c.BlobCipher()
	if err != nil {
		return nil, err
	}
	signer, err := c.Signer()
	if err != nil {
		return nil, err
	}
	engine, err := c.AuthzEngine()
	if err != nil {
		return nil, err
	}
	ledger, err := c.Ledger()
	if err != nil {
		return nil, err
	}
	businessMetrics, err := c.BusinessMetrics()
	if err != nil {
		return nil, fmt.Errorf("failed to get business metrics for document use case: %w", err)
	}

	useCase := documentUseCase.NewDocumentUseCase(
		repo,
		blobs,
		cipher,
		signer,
		engine,
		ledger,
		documentUseCase.Options{AllowReapproval: c.config.DocumentAllowReapproval},
		c.Logger(),
	)
	return documentUseCase.NewDocumentUseCaseWithMetrics(useCase, businessMetrics), nil
}
