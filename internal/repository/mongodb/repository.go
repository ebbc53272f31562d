package mongodb

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/mamadbah2/repairdesk/internal/domain/models"
)

const (
	collClients       = "clients"
	collPieces        = "pieces"
	collInterventions = "interventions"
	collFactures      = "factures"
	collAppareilsPret = "appareilspret"
	collPrets         = "prets"
	collVehicules     = "vehicules"
	collUsers         = "users"
	collMaintenance   = "maintenance"
	collConversations = "conversations"
	collFormulaires   = "formulaires"
	collCounters      = "counters"
)

// MongoDBRepository owns the connection and hands out per-collection repositories.
type MongoDBRepository struct {
	client *mongo.Client
	db     *mongo.Database
}

// NewMongoDBRepository connects to MongoDB and verifies the connection.
func NewMongoDBRepository(ctx context.Context, uri string, dbName string) (*MongoDBRepository, error) {
	clientOptions := options.Client().ApplyURI(uri)
	client, err := mongo.Connect(ctx, clientOptions)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to mongodb: %w", err)
	}

	// Ping the database to verify connection
	if err := client.Ping(ctx, nil); err != nil {
		return nil, fmt.Errorf("failed to ping mongodb: %w", err)
	}

	return &MongoDBRepository{
		client: client,
		db:     client.Database(dbName),
	}, nil
}

// EnsureIndexes creates the unique and lookup indexes the application relies on.
func (r *MongoDBRepository) EnsureIndexes(ctx context.Context) error {
	unique := options.Index().SetUnique(true)
	uniqueSparse := options.Index().SetUnique(true).SetSparse(true)

	specs := map[string][]mongo.IndexModel{
		collPieces: {
			{Keys: bson.D{{Key: "reference", Value: 1}}, Options: unique},
			{Keys: bson.D{{Key: "actif", Value: 1}, {Key: "quantiteStock", Value: 1}}},
		},
		collInterventions: {
			{Keys: bson.D{{Key: "numero", Value: 1}}, Options: uniqueSparse},
			{Keys: bson.D{{Key: "clientId", Value: 1}, {Key: "appareil._id", Value: 1}}},
			{Keys: bson.D{{Key: "statut", Value: 1}, {Key: "dateRealisation", Value: -1}}},
		},
		collFactures: {
			{Keys: bson.D{{Key: "numero", Value: 1}}, Options: uniqueSparse},
			{Keys: bson.D{{Key: "statut", Value: 1}, {Key: "dateEmission", Value: 1}}},
		},
		collAppareilsPret: {
			{Keys: bson.D{{Key: "numeroSerie", Value: 1}}, Options: unique},
		},
		collPrets: {
			{Keys: bson.D{{Key: "appareilPretId", Value: 1}, {Key: "dateRetourEffectif", Value: 1}}},
		},
		collVehicules: {
			{Keys: bson.D{{Key: "immatriculation", Value: 1}}, Options: unique},
		},
		collUsers: {
			{Keys: bson.D{{Key: "email", Value: 1}}, Options: unique},
		},
		collConversations: {
			{Keys: bson.D{{Key: "userId", Value: 1}, {Key: "updatedAt", Value: -1}}},
		},
	}

	for name, models := range specs {
		if _, err := r.db.Collection(name).Indexes().CreateMany(ctx, models); err != nil {
			return fmt.Errorf("create indexes on %s: %w", name, err)
		}
	}
	return nil
}

// Clients returns the client repository.
func (r *MongoDBRepository) Clients() *ClientRepository {
	return &ClientRepository{base: newBase[models.Client](r.db.Collection(collClients), "client")}
}

// Pieces returns the spare-part repository.
func (r *MongoDBRepository) Pieces() *PieceRepository {
	return &PieceRepository{base: newBase[models.Piece](r.db.Collection(collPieces), "pièce")}
}

// Interventions returns the intervention repository.
func (r *MongoDBRepository) Interventions() *InterventionRepository {
	return &InterventionRepository{base: newBase[models.Intervention](r.db.Collection(collInterventions), "intervention")}
}

// Factures returns the invoice repository.
func (r *MongoDBRepository) Factures() *FactureRepository {
	return &FactureRepository{base: newBase[models.Facture](r.db.Collection(collFactures), "facture")}
}

// AppareilsPret returns the loaner device repository.
func (r *MongoDBRepository) AppareilsPret() *AppareilPretRepository {
	return &AppareilPretRepository{base: newBase[models.AppareilPret](r.db.Collection(collAppareilsPret), "appareil de prêt")}
}

// Prets returns the loan repository.
func (r *MongoDBRepository) Prets() *PretRepository {
	return &PretRepository{base: newBase[models.Pret](r.db.Collection(collPrets), "prêt")}
}

// Vehicules returns the vehicle repository.
func (r *MongoDBRepository) Vehicules() *VehiculeRepository {
	return &VehiculeRepository{base: newBase[models.Vehicule](r.db.Collection(collVehicules), "véhicule")}
}

// Users returns the user repository.
func (r *MongoDBRepository) Users() *UserRepository {
	return &UserRepository{base: newBase[models.User](r.db.Collection(collUsers), "utilisateur")}
}

// Conversations returns the assistant conversation repository.
func (r *MongoDBRepository) Conversations() *ConversationRepository {
	return &ConversationRepository{base: newBase[models.Conversation](r.db.Collection(collConversations), "conversation")}
}

// Formulaires returns the internal form repository.
func (r *MongoDBRepository) Formulaires() *FormulaireRepository {
	return &FormulaireRepository{base: newBase[models.Formulaire](r.db.Collection(collFormulaires), "formulaire")}
}

// Maintenance returns the maintenance flag repository.
func (r *MongoDBRepository) Maintenance() *MaintenanceRepository {
	return &MaintenanceRepository{coll: r.db.Collection(collMaintenance)}
}

// Counters returns the sequence counter repository.
func (r *MongoDBRepository) Counters() *CounterRepository {
	return &CounterRepository{coll: r.db.Collection(collCounters)}
}

// Close closes the MongoDB connection.
func (r *MongoDBRepository) Close(ctx context.Context) error {
	return r.client.Disconnect(ctx)
}
